package manifest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/mcupdater/mcupdater/util"
)

// WriteMarker records the resolved version id for external observers.
func WriteMarker(ctx context.Context, path, versionID string) error {
	return util.WriteBytes(ctx, path, []byte(versionID))
}

// ReadMarker returns the previously recorded version id, or "" if none was recorded.
func ReadMarker(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// IsRegression reports whether current is an older release than previous.
// Ids that are not semantic versions, such as snapshot ids, are never a regression.
func IsRegression(previous, current string) bool {
	if previous == "" || previous == current {
		return false
	}

	prev, err := goversion.NewSemver(previous)
	if err != nil {
		return false
	}
	cur, err := goversion.NewSemver(current)
	if err != nil {
		return false
	}
	return cur.LessThan(prev)
}
