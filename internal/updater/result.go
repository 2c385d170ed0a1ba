package updater

import (
	"time"

	"github.com/mcupdater/mcupdater/internal/backup"
	"github.com/mcupdater/mcupdater/internal/manifest"
)

// State is a step of the update pipeline. A run records the last state it reached.
type State string

const (
	StateStart           State = "START"
	StateManifestFetched State = "MANIFEST_FETCHED"
	StateUpToDate        State = "UP_TO_DATE"
	StateDownloaded      State = "DOWNLOADED"
	StateNotified        State = "NOTIFIED"
	StateStopped         State = "STOPPED"
	StateBackedUp        State = "BACKED_UP"
	StateSwapped         State = "SWAPPED"
	StateRelaunched      State = "RELAUNCHED"
)

// Result is the record of one run, persisted as last_run.json.
type Result struct {
	RunID          string           `json:"run_id"`
	State          State            `json:"state"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	Channel        manifest.Channel `json:"channel"`
	VersionID      string           `json:"version_id,omitempty"`
	LocalChecksum  string           `json:"local_checksum,omitempty"`
	RemoteChecksum string           `json:"remote_checksum,omitempty"`
	Backup         *backup.Record   `json:"backup,omitempty"`
	Error          string           `json:"error,omitempty"`
	ErrorClass     string           `json:"error_class,omitempty"`
}

// Updated reports whether the live artifact was replaced.
func (r Result) Updated() bool {
	return r.State == StateSwapped || r.State == StateRelaunched
}

// CheckReport is what a dry run found out.
type CheckReport struct {
	Channel         manifest.Channel
	VersionID       string
	PreviousVersion string
	LocalChecksum   string
	RemoteChecksum  string
	NeedsUpdate     bool
	Regression      bool
}
