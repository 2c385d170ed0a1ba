package artifact

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mcupdater/mcupdater/util"
)

// Swap rotates the live artifact to old and moves staged into place:
// remove old, rename live to old, rename staged to live.
// The live artifact is only ever renamed, never deleted, but the sequence as a
// whole is not atomic.
func Swap(live, old, staged string) error {
	if !util.FileExists(staged) {
		return fmt.Errorf("staged artifact %s: %w", staged, os.ErrNotExist)
	}

	if err := util.RemoveIfExists(old); err != nil {
		return fmt.Errorf("remove previous %s: %w", old, err)
	}

	if util.FileExists(live) {
		if err := os.Rename(live, old); err != nil {
			return fmt.Errorf("keep %s as %s: %w", live, old, err)
		}
		log.Debugf("kept previous artifact as %s", old)
	}

	if err := os.Rename(staged, live); err != nil {
		return fmt.Errorf("move %s to %s: %w", staged, live, err)
	}
	return nil
}
