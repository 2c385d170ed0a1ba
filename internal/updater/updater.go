// Package updater runs the update pipeline: resolve the channel, compare
// checksums, stage the new artifact, stop the server, back up the world,
// swap the artifact and relaunch.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mcupdater/mcupdater/internal/artifact"
	"github.com/mcupdater/mcupdater/internal/backup"
	"github.com/mcupdater/mcupdater/internal/config"
	mcerrors "github.com/mcupdater/mcupdater/internal/errors"
	"github.com/mcupdater/mcupdater/internal/manifest"
	"github.com/mcupdater/mcupdater/internal/metrics"
	"github.com/mcupdater/mcupdater/internal/session"
	"github.com/mcupdater/mcupdater/util"
)

type Resolver interface {
	Resolve(ctx context.Context, channel manifest.Channel) (manifest.Release, error)
}

type Downloader interface {
	DownloadToFile(ctx context.Context, url, dst string) (int64, error)
}

// Countdown warns the players and stops the server.
type Countdown interface {
	Announce(ctx context.Context, sess session.Session) error
	Shutdown(ctx context.Context, sess session.Session) error
}

type Updater struct {
	cfg        config.Config
	resolver   Resolver
	downloader Downloader
	session    session.Session
	countdown  Countdown
	metrics    *metrics.Metrics
	now        func() time.Time
}

func New(cfg config.Config, resolver Resolver, downloader Downloader, sess session.Session, countdown Countdown) *Updater {
	return &Updater{
		cfg:        cfg,
		resolver:   resolver,
		downloader: downloader,
		session:    sess,
		countdown:  countdown,
		now:        time.Now,
	}
}

// WithMetrics makes Run write a Prometheus textfile to the configured metrics file.
func (u *Updater) WithMetrics(m *metrics.Metrics) *Updater {
	u.metrics = m
	return u
}

// WithClock replaces time.Now, used by tests.
func (u *Updater) WithClock(now func() time.Time) *Updater {
	u.now = now
	return u
}

// Run performs one update run. An up to date server is a successful run.
// The returned Result is filled in as far as the run got, also on error.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	res := Result{
		RunID:     uuid.NewString(),
		State:     StateStart,
		StartedAt: u.now(),
		Channel:   u.cfg.Channel,
	}
	ctx = util.WithRunID(ctx, res.RunID)

	err := u.run(ctx, &res)
	u.finish(ctx, &res, err)
	return res, err
}

func (u *Updater) run(ctx context.Context, res *Result) error {
	log.WithContext(ctx).Infof("Parent Directory: %s", u.cfg.ServerDir)
	log.WithContext(ctx).Infof("Extracted Name of Minecraft World: %s", u.cfg.WorldName)

	release, local, err := u.resolve(ctx)
	if err != nil {
		return err
	}
	res.State = StateManifestFetched
	res.VersionID = release.VersionID
	res.RemoteChecksum = release.Checksum
	res.LocalChecksum = local.Checksum

	if !artifact.NeedsUpdate(local.Checksum, release.Checksum) {
		log.WithContext(ctx).Info("Server is already up to date.")
		res.State = StateUpToDate
		return nil
	}

	log.WithContext(ctx).Info("Updating server...")
	if err := u.stage(ctx, release); err != nil {
		return err
	}
	res.State = StateDownloaded

	if err := backup.Preflight(u.cfg.WorldDir, u.cfg.BackupDir); err != nil {
		return mcerrors.Classify(mcerrors.ErrBackup, err)
	}

	if err := u.countdown.Announce(ctx, u.session); err != nil {
		return fmt.Errorf("countdown interrupted: %w", err)
	}
	res.State = StateNotified

	if err := u.countdown.Shutdown(ctx, u.session); err != nil {
		return fmt.Errorf("shutdown interrupted: %w", err)
	}
	res.State = StateStopped

	log.WithContext(ctx).Info("Backing up world...")
	record, err := backup.Create(u.cfg.WorldDir, u.cfg.BackupDir, local.Checksum, u.now())
	if err != nil {
		return mcerrors.Classify(mcerrors.ErrBackup, err)
	}
	res.Backup = &record
	res.State = StateBackedUp
	log.WithContext(ctx).Info("Backed up world.")

	log.WithContext(ctx).Info("Updating server .jar")
	if err := artifact.Swap(u.cfg.LivePath, u.cfg.OldPath, u.cfg.StagedPath); err != nil {
		return mcerrors.Classify(mcerrors.ErrSwap, err)
	}
	res.State = StateSwapped

	// The server must come back even if the run is being cancelled.
	launchCtx := context.WithoutCancel(ctx)
	spec := session.JavaLaunch(u.cfg.ServerDir, u.cfg.Java, u.cfg.InitMemory, u.cfg.MaxMemory, config.ArtifactName)
	log.WithContext(ctx).Infof("Starting server: %s", spec)
	if err := u.session.Launch(launchCtx, spec); err != nil {
		return fmt.Errorf("relaunch server in session %s: %w", u.session.Name(), err)
	}
	res.State = StateRelaunched
	return nil
}

// resolve finds the published release and the installed artifact, and
// records the resolved version id.
func (u *Updater) resolve(ctx context.Context) (manifest.Release, artifact.State, error) {
	release, err := u.resolver.Resolve(ctx, u.cfg.Channel)
	if err != nil {
		return manifest.Release{}, artifact.State{}, mcerrors.Classify(mcerrors.ErrManifestFetch, err)
	}

	local, err := artifact.Inspect(u.cfg.LivePath)
	if err != nil {
		return manifest.Release{}, artifact.State{}, fmt.Errorf("inspect installed artifact: %w", err)
	}

	log.WithContext(ctx).Infof("Your sha1 is %s. Latest version is %s with sha1 of %s", local.Checksum, release.VersionID, release.Checksum)
	if !local.Installed() {
		log.WithContext(ctx).Infof("no server jar at %s, installing %s", local.Path, release.VersionID)
	}

	previous, err := manifest.ReadMarker(u.cfg.MarkerPath)
	if err != nil {
		log.WithContext(ctx).Warnf("failed to read %s: %v", u.cfg.MarkerPath, err)
	}
	if manifest.IsRegression(previous, release.VersionID) {
		log.WithContext(ctx).Warnf("%s channel went back from %s to %s", release.Channel, previous, release.VersionID)
	}
	if err := manifest.WriteMarker(ctx, u.cfg.MarkerPath, release.VersionID); err != nil {
		return manifest.Release{}, artifact.State{}, fmt.Errorf("record latest version in %s: %w", u.cfg.MarkerPath, err)
	}

	return release, local, nil
}

// stage downloads the artifact to the staging path and verifies it.
func (u *Updater) stage(ctx context.Context, release manifest.Release) error {
	dlCtx := ctx
	if u.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, u.cfg.DownloadTimeout)
		defer cancel()
	}

	log.WithContext(ctx).Infof("Downloading .jar from %s...", release.ArtifactURL)
	n, err := u.downloader.DownloadToFile(dlCtx, release.ArtifactURL, u.cfg.StagedPath)
	if err != nil {
		return mcerrors.Classify(mcerrors.ErrArtifactDownload, err)
	}
	if release.Size > 0 && n != release.Size {
		log.WithContext(ctx).Warnf("downloaded %d bytes, manifest lists %d", n, release.Size)
	}
	log.WithContext(ctx).Info("Downloaded.")

	sum, err := artifact.Checksum(u.cfg.StagedPath)
	if err != nil {
		return mcerrors.Classify(mcerrors.ErrArtifactDownload, fmt.Errorf("checksum staged artifact: %w", err))
	}
	if artifact.NeedsUpdate(sum, release.Checksum) {
		return mcerrors.Classify(mcerrors.ErrChecksumUnresolvable,
			fmt.Errorf("staged %s has sha1 %s, manifest lists %s", u.cfg.StagedPath, sum, release.Checksum))
	}
	return nil
}

func (u *Updater) finish(ctx context.Context, res *Result, err error) {
	res.FinishedAt = u.now()
	if err != nil {
		res.Error = err.Error()
		if class := mcerrors.Class(err); class != nil {
			res.ErrorClass = class.Error()
		}
		log.WithContext(ctx).Errorf("update failed in state %s: %v", res.State, err)
	}

	// Run records are written even when ctx is cancelled.
	writeCtx := context.WithoutCancel(ctx)
	if werr := util.WriteJson(writeCtx, u.cfg.LastRunPath, res); werr != nil {
		log.WithContext(ctx).Warnf("failed to write run record: %v", werr)
	}

	if u.metrics == nil || u.cfg.MetricsFile == "" {
		return
	}
	u.metrics.Observe(metrics.Run{
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Channel:      string(res.Channel),
		VersionID:    res.VersionID,
		State:        string(res.State),
		Updated:      res.Updated(),
		FailureClass: failureClass(res),
	})
	if werr := u.metrics.WriteTextfile(u.cfg.MetricsFile); werr != nil {
		log.WithContext(ctx).Warnf("failed to write metrics to %s: %v", u.cfg.MetricsFile, werr)
	}
}

func failureClass(res *Result) string {
	if res.Error == "" {
		return ""
	}
	if res.ErrorClass == "" {
		return "unclassified"
	}
	return res.ErrorClass
}

// Check resolves the channel and compares checksums without changing
// anything but the latest version marker.
func (u *Updater) Check(ctx context.Context) (CheckReport, error) {
	previous, _ := manifest.ReadMarker(u.cfg.MarkerPath)

	release, local, err := u.resolve(ctx)
	if err != nil {
		return CheckReport{}, err
	}

	return CheckReport{
		Channel:         release.Channel,
		VersionID:       release.VersionID,
		PreviousVersion: previous,
		LocalChecksum:   local.Checksum,
		RemoteChecksum:  release.Checksum,
		NeedsUpdate:     artifact.NeedsUpdate(local.Checksum, release.Checksum),
		Regression:      manifest.IsRegression(previous, release.VersionID),
	}, nil
}
