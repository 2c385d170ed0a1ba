package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcupdater/mcupdater/util"
)

const timestampLayout = "2006-01-02T15:04:05.000000"

// Record describes a world backup. Backups are never modified or pruned.
type Record struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

// Name returns the backup directory name for a backup taken at ts of a
// server whose artifact had the given checksum.
func Name(ts time.Time, checksum string) string {
	stamp := strings.ReplaceAll(ts.Format(timestampLayout), ":", "-")
	return "world_backup_" + stamp + "_sha=" + checksum
}

// Create copies worldDir into a new directory below backupDir. It fails if
// the world is missing or the destination already exists.
func Create(worldDir, backupDir, checksum string, now time.Time) (Record, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return Record{}, fmt.Errorf("create backup dir %s: %w", backupDir, err)
	}

	dst := filepath.Join(backupDir, Name(now, checksum))
	if err := util.CopyDir(worldDir, dst); err != nil {
		return Record{}, fmt.Errorf("copy world %s to %s: %w", worldDir, dst, err)
	}

	return Record{
		Path:      dst,
		CreatedAt: now,
		Checksum:  checksum,
	}, nil
}
