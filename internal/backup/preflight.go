package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// Preflight checks that the filesystem holding backupDir has room for a copy
// of worldDir.
func Preflight(worldDir, backupDir string) error {
	return checkSpace(worldDir, backupDir, freeBytes)
}

func checkSpace(worldDir, backupDir string, free func(string) (uint64, error)) error {
	need, err := dirSize(worldDir)
	if err != nil {
		return fmt.Errorf("measure world %s: %w", worldDir, err)
	}

	target, err := existingAncestor(backupDir)
	if err != nil {
		return err
	}

	avail, err := free(target)
	if err != nil {
		return fmt.Errorf("query free space on %s: %w", target, err)
	}

	if avail < need {
		return fmt.Errorf("not enough space for backup on %s: need %d bytes, %d available", target, need, avail)
	}
	return nil
}

func freeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

func dirSize(dir string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	return total, err
}

func existingAncestor(path string) (string, error) {
	for {
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("no existing ancestor of %s", path)
		}
		path = parent
	}
}
