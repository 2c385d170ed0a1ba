package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcupdater/mcupdater/internal/config"
	"github.com/mcupdater/mcupdater/internal/downloader"
	"github.com/mcupdater/mcupdater/internal/manifest"
	"github.com/mcupdater/mcupdater/internal/metrics"
	"github.com/mcupdater/mcupdater/internal/session"
	"github.com/mcupdater/mcupdater/internal/updater"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "updates and restarts the server if a new version is published",
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u, err := newUpdater()
	if err != nil {
		log.Errorf("failed to set up updater: %v", err)
		return err
	}

	res, err := u.Run(ctx)
	if err != nil {
		return err
	}
	log.WithContext(ctx).Debugf("run %s finished in state %s", res.RunID, res.State)
	return nil
}

func newUpdater() (*updater.Updater, error) {
	cfg, err := config.Load(options())
	if err != nil {
		return nil, err
	}

	// Requests are bounded by the http and download timeouts through their contexts.
	dl := downloader.New(&http.Client{})

	sess, err := session.New(cfg.Multiplexer, cfg.SessionName, session.ExecRunner{})
	if err != nil {
		return nil, err
	}

	u := updater.New(cfg, manifest.NewClient(dl, cfg.ManifestURL, cfg.HTTPTimeout), dl, sess, session.NewCountdown())
	if cfg.MetricsFile != "" {
		u.WithMetrics(metrics.New())
	}
	return u, nil
}
