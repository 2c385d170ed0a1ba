package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd(channel, backupDir *string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().StringVar(channel, "channel", "release", "")
	cmd.PersistentFlags().StringVar(backupDir, "backup-dir", "world_backups", "")
	return cmd
}

func TestSetFlagsFromEnvVars(t *testing.T) {
	var channel, backupDir string
	cmd := newFlagCmd(&channel, &backupDir)
	require.NoError(t, cmd.ParseFlags([]string{"--channel", "release"}))

	t.Setenv("MCU_CHANNEL", "snapshot")
	t.Setenv("MCU_BACKUP_DIR", "/srv/backups")

	SetFlagsFromEnvVars(cmd)

	assert.Equal(t, "release", channel, "explicit flags win over the environment")
	assert.Equal(t, "/srv/backups", backupDir)
}

func TestSetFlagsFromEnvVars_Credentials(t *testing.T) {
	var channel, backupDir string
	cmd := newFlagCmd(&channel, &backupDir)

	credsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(credsDir, "CHANNEL"), []byte("snapshot\n"), 0o600))
	t.Setenv("CREDENTIALS_DIRECTORY", credsDir)
	t.Setenv("MCU_CHANNEL", "release")

	SetFlagsFromEnvVars(cmd)

	assert.Equal(t, "snapshot", channel)
	assert.Equal(t, "world_backups", backupDir)
}

func TestFlagNameToUpper(t *testing.T) {
	assert.Equal(t, "HTTP_TIMEOUT", FlagNameToUpper("http-timeout"))
}
