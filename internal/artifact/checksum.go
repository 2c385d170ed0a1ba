package artifact

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// State describes the installed artifact. Checksum is empty when no artifact
// is installed, which never equals a published checksum.
type State struct {
	Path     string
	Checksum string
}

func (s State) Installed() bool {
	return s.Checksum != ""
}

// Checksum returns the hex encoded SHA-1 of the file, the digest the launcher
// manifest publishes for server downloads.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Inspect checksums the artifact at path if it exists.
func Inspect(path string) (State, error) {
	sum, err := Checksum(path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{Path: path}, nil
	}
	if err != nil {
		return State{}, err
	}
	return State{Path: path, Checksum: sum}, nil
}

// NeedsUpdate compares checksums byte for byte.
func NeedsUpdate(local, remote string) bool {
	return local != remote
}
