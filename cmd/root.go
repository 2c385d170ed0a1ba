package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcupdater/mcupdater/internal/config"
	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
	"github.com/mcupdater/mcupdater/util"
)

const (
	workDirFlag         = "work-dir"
	serverDirFlag       = "server-dir"
	channelFlag         = "channel"
	backupDirFlag       = "backup-dir"
	sessionFlag         = "session"
	multiplexerFlag     = "multiplexer"
	manifestURLFlag     = "manifest-url"
	httpTimeoutFlag     = "http-timeout"
	downloadTimeoutFlag = "download-timeout"
	javaFlag            = "java"
	logLevelFlag        = "log-level"
	logFileFlag         = "log-file"
	metricsFileFlag     = "metrics-file"
	configFlag          = "config"

	defaultLogFile = "auto_updater.log"
)

var (
	workDir         string
	serverDir       string
	channel         string
	backupDir       string
	sessionName     string
	multiplexer     string
	manifestURL     string
	httpTimeout     time.Duration
	downloadTimeout time.Duration
	javaPath        string
	logLevel        string
	logFile         string
	metricsFile     string
	configFile      string

	rootCmd = &cobra.Command{
		Use:               "mcupdater",
		Short:             "Keeps a Minecraft server on the latest published version",
		Long:              "mcupdater checks the launcher manifest for a newer server jar and, if there is one, warns the players, stops the server, backs up the world, installs the new jar and starts the server again. It is meant to be run from cron.",
		SilenceUsage:      true,
		PersistentPreRunE: preRun,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, workDirFlag, "", "updater working directory holding the staged jar, version marker and backups (default: directory of the executable)")
	rootCmd.PersistentFlags().StringVar(&serverDir, serverDirFlag, "", "server root holding minecraft_server.jar, server.resources and server.properties (default: parent of the work dir)")
	rootCmd.PersistentFlags().StringVar(&channel, channelFlag, "release", "release channel to follow [release|snapshot]")
	rootCmd.PersistentFlags().StringVar(&backupDir, backupDirFlag, "world_backups", "directory world backups are written to, relative to the work dir")
	rootCmd.PersistentFlags().StringVar(&sessionName, sessionFlag, "", "name of the multiplexer session running the server (default: minecraft_<server dir name>)")
	rootCmd.PersistentFlags().StringVar(&multiplexer, multiplexerFlag, config.MultiplexerScreen, "terminal multiplexer hosting the server [screen|tmux]")
	rootCmd.PersistentFlags().StringVar(&manifestURL, manifestURLFlag, config.DefaultManifestURL, "launcher version manifest URL")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, httpTimeoutFlag, 30*time.Second, "timeout for manifest and metadata requests")
	rootCmd.PersistentFlags().DurationVar(&downloadTimeout, downloadTimeoutFlag, 10*time.Minute, "timeout for the server jar download, 0 disables it")
	rootCmd.PersistentFlags().StringVar(&javaPath, javaFlag, "java", "java binary used to start the server")
	rootCmd.PersistentFlags().StringVar(&logLevel, logLevelFlag, "info", "sets log level")
	rootCmd.PersistentFlags().StringVar(&logFile, logFileFlag, defaultLogFile, "sets log path, relative to the work dir. If console is specified the log will be output to stdout")
	rootCmd.PersistentFlags().StringVar(&metricsFile, metricsFileFlag, "", "write run metrics in Prometheus textfile format to this path")
	rootCmd.PersistentFlags().StringVarP(&configFile, configFlag, "c", "", "updater config file (default: <work dir>/"+defaultConfigFile+" if present)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// preRun resolves flags from the environment and the config file, then sets
// up logging. Command line flags take precedence over both.
func preRun(cmd *cobra.Command, _ []string) error {
	util.SetFlagsFromEnvVars(cmd.Root())
	if cmd != cmd.Root() {
		util.SetFlagsFromEnvVars(cmd)
	}

	dir, err := resolveWorkDir(workDir)
	if err != nil {
		return mcerrors.Classify(mcerrors.ErrConfig, err)
	}
	workDir = dir

	cfgPath, required := configFile, true
	if cfgPath == "" {
		cfgPath, required = filepath.Join(workDir, defaultConfigFile), false
	}
	if err := applyConfigFile(cmd.Flags(), cfgPath, required); err != nil {
		return mcerrors.Classify(mcerrors.ErrConfig, err)
	}

	logPath := logFile
	if logPath != util.LogConsole && !filepath.IsAbs(logPath) {
		logPath = filepath.Join(workDir, logPath)
	}
	if err := util.InitLog(logLevel, logPath); err != nil {
		return fmt.Errorf("failed initializing log %v", err)
	}
	log.Debugf("work dir %s", workDir)
	return nil
}

func resolveWorkDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func options() config.Options {
	return config.Options{
		WorkDir:         workDir,
		ServerDir:       serverDir,
		Channel:         channel,
		BackupDir:       backupDir,
		SessionName:     sessionName,
		Multiplexer:     multiplexer,
		ManifestURL:     manifestURL,
		Java:            javaPath,
		MetricsFile:     metricsFile,
		HTTPTimeout:     httpTimeout,
		DownloadTimeout: downloadTimeout,
	}
}
