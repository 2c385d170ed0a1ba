// Package errors holds the failure classes of an update run.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrConfig               = errors.New("invalid configuration")
	ErrManifestFetch        = errors.New("manifest fetch failed")
	ErrArtifactDownload     = errors.New("artifact download failed")
	ErrChecksumUnresolvable = errors.New("downloaded artifact checksum does not match manifest")
	ErrBackup               = errors.New("world backup failed")
	ErrSwap                 = errors.New("artifact swap failed")
	ErrSessionUnavailable   = errors.New("session unavailable")
)

var classes = []error{
	ErrConfig,
	ErrManifestFetch,
	ErrArtifactDownload,
	ErrChecksumUnresolvable,
	ErrBackup,
	ErrSwap,
	ErrSessionUnavailable,
}

// Classify wraps err with class unless it already carries one.
func Classify(class, err error) error {
	if err == nil {
		return nil
	}
	if Class(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}

// Class returns the failure class carried by err, or nil.
func Class(err error) error {
	for _, c := range classes {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

func formatError(es []error) string {
	if len(es) == 1 {
		return fmt.Sprintf("1 error occurred:\n\t* %s", es[0])
	}

	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err)
	}

	return fmt.Sprintf(
		"%d errors occurred:\n\t%s",
		len(es), strings.Join(points, "\n\t"))
}

func FormatErrorOrNil(err *multierror.Error) error {
	if err != nil {
		err.ErrorFormat = formatError
	}
	return err.ErrorOrNil()
}
