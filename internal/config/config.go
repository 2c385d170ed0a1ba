package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/magiconair/properties"
	"gopkg.in/ini.v1"

	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
	"github.com/mcupdater/mcupdater/internal/manifest"
)

const (
	ResourcesFile  = "server.resources"
	PropertiesFile = "server.properties"
	ArtifactName   = "minecraft_server.jar"
	MarkerName     = "latest_version"
	LastRunName    = "last_run.json"

	DefaultWorldName   = "minecraft_world"
	DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	resourceSection = "RESOURCE_ALLOCATION"
	levelNameKey    = "level-name"

	MultiplexerScreen = "screen"
	MultiplexerTmux   = "tmux"
)

// Options are the updater settings coming from flags, environment and the
// optional updater config file.
type Options struct {
	WorkDir         string
	ServerDir       string
	Channel         string
	BackupDir       string
	SessionName     string
	Multiplexer     string
	ManifestURL     string
	Java            string
	MetricsFile     string
	HTTPTimeout     time.Duration
	DownloadTimeout time.Duration
}

// Config is loaded once at startup and never modified afterwards.
// All paths are absolute.
type Config struct {
	InitMemory  string
	MaxMemory   string
	WorldName   string
	Channel     manifest.Channel
	SessionName string
	Multiplexer string
	Java        string

	ManifestURL     string
	HTTPTimeout     time.Duration
	DownloadTimeout time.Duration

	WorkDir     string
	ServerDir   string
	WorldDir    string
	BackupDir   string
	LivePath    string
	OldPath     string
	StagedPath  string
	MarkerPath  string
	LastRunPath string
	MetricsFile string
}

// Load resolves opts against the server root and reads the server's resource
// and properties files.
func Load(opts Options) (Config, error) {
	cfg, err := load(opts)
	if err != nil {
		return Config{}, mcerrors.Classify(mcerrors.ErrConfig, err)
	}
	return cfg, nil
}

func load(opts Options) (Config, error) {
	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve work dir: %w", err)
	}

	serverDir := opts.ServerDir
	if serverDir == "" {
		serverDir = filepath.Dir(workDir)
	} else if !filepath.IsAbs(serverDir) {
		serverDir = filepath.Join(workDir, serverDir)
	}
	serverDir = filepath.Clean(serverDir)

	initMem, maxMem, err := readResources(filepath.Join(serverDir, ResourcesFile))
	if err != nil {
		return Config{}, err
	}

	worldName, err := readWorldName(filepath.Join(serverDir, PropertiesFile))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InitMemory:      initMem,
		MaxMemory:       maxMem,
		WorldName:       worldName,
		Channel:         manifest.Channel(opts.Channel),
		SessionName:     opts.SessionName,
		Multiplexer:     opts.Multiplexer,
		Java:            opts.Java,
		ManifestURL:     opts.ManifestURL,
		HTTPTimeout:     opts.HTTPTimeout,
		DownloadTimeout: opts.DownloadTimeout,
		WorkDir:         workDir,
		ServerDir:       serverDir,
		WorldDir:        filepath.Join(serverDir, worldName),
		BackupDir:       resolve(workDir, opts.BackupDir),
		LivePath:        filepath.Join(serverDir, ArtifactName),
		OldPath:         filepath.Join(serverDir, ArtifactName+".old"),
		StagedPath:      filepath.Join(workDir, ArtifactName),
		MarkerPath:      filepath.Join(workDir, MarkerName),
		LastRunPath:     filepath.Join(workDir, LastRunName),
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = resolve(workDir, opts.MetricsFile)
	}

	if cfg.SessionName == "" {
		cfg.SessionName = DefaultSessionName(serverDir)
	}
	if cfg.Multiplexer == "" {
		cfg.Multiplexer = MultiplexerScreen
	}
	if cfg.Java == "" {
		cfg.Java = "java"
	}
	if cfg.ManifestURL == "" {
		cfg.ManifestURL = DefaultManifestURL
	}

	return cfg, cfg.Validate()
}

// DefaultSessionName names the session after the server root directory.
func DefaultSessionName(serverDir string) string {
	return "minecraft_" + filepath.Base(serverDir)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var merr *multierror.Error

	if _, err := manifest.ParseChannel(string(c.Channel)); err != nil {
		merr = multierror.Append(merr, err)
	}
	if c.InitMemory == "" {
		merr = multierror.Append(merr, fmt.Errorf("init_memory must not be empty"))
	}
	if c.MaxMemory == "" {
		merr = multierror.Append(merr, fmt.Errorf("max_memory must not be empty"))
	}
	if c.Multiplexer != MultiplexerScreen && c.Multiplexer != MultiplexerTmux {
		merr = multierror.Append(merr, fmt.Errorf("unknown multiplexer %q, expected %q or %q", c.Multiplexer, MultiplexerScreen, MultiplexerTmux))
	}
	if strings.ContainsAny(c.SessionName, " \t\n") {
		merr = multierror.Append(merr, fmt.Errorf("session name %q must not contain whitespace", c.SessionName))
	}
	// tmux parses ':' and '.' in a target as window and pane separators.
	if c.Multiplexer == MultiplexerTmux && strings.ContainsAny(c.SessionName, ":.") {
		merr = multierror.Append(merr, fmt.Errorf("tmux session name %q must not contain ':' or '.', set --session", c.SessionName))
	}
	if c.HTTPTimeout < 0 || c.DownloadTimeout < 0 {
		merr = multierror.Append(merr, fmt.Errorf("timeouts must not be negative"))
	}

	return mcerrors.FormatErrorOrNil(merr)
}

func readResources(path string) (string, string, error) {
	// Keys are case-insensitive, section names are not.
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}

	section, err := f.GetSection(resourceSection)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", path, err)
	}

	var values [2]string
	for i, key := range []string{"init_memory", "max_memory"} {
		k, err := section.GetKey(key)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", path, err)
		}
		values[i] = strings.TrimSpace(k.String())
	}
	return values[0], values[1], nil
}

func readWorldName(path string) (string, error) {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	name := strings.TrimSpace(p.GetString(levelNameKey, ""))
	if name == "" {
		return DefaultWorldName, nil
	}
	return name, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
