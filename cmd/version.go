package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mcupdater/mcupdater/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints mcupdater version",
	// no config or log setup needed
	PersistentPreRun: func(*cobra.Command, []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.UpdaterVersion())
	},
}
