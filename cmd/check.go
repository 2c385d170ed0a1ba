package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "reports whether a new server version is published, without installing it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		u, err := newUpdater()
		if err != nil {
			return err
		}

		report, err := u.Check(ctx)
		if err != nil {
			return err
		}

		local := report.LocalChecksum
		if local == "" {
			local = "(not installed)"
		}
		cmd.Printf("channel:         %s\n", report.Channel)
		cmd.Printf("latest version:  %s\n", report.VersionID)
		cmd.Printf("local sha1:      %s\n", local)
		cmd.Printf("published sha1:  %s\n", report.RemoteChecksum)
		cmd.Printf("update needed:   %t\n", report.NeedsUpdate)
		if report.Regression {
			cmd.Printf("warning: %s is older than the previously recorded %s\n", report.VersionID, report.PreviousVersion)
		}
		return nil
	},
}
