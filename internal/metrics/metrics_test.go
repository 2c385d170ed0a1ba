package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	start := time.Unix(1700000000, 0)
	m := New()
	m.Observe(Run{
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Channel:    "release",
		VersionID:  "1.21.4",
		State:      "RELAUNCHED",
		Updated:    true,
	})

	path := filepath.Join(t.TempDir(), "mcupdater.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "mcupdater_last_run_success 1\n")
	assert.Contains(t, text, "mcupdater_last_run_updated 1\n")
	assert.Contains(t, text, "mcupdater_last_run_duration_seconds 42\n")
	assert.Contains(t, text, `mcupdater_last_run_info{channel="release",state="RELAUNCHED",version="1.21.4"} 1`)
	assert.NotContains(t, text, "mcupdater_last_run_failure{")
}

func TestObserve_Failure(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := New()
	m.Observe(Run{StartedAt: now, FinishedAt: now, Channel: "release", State: "DOWNLOADED", Updated: true})
	m.Observe(Run{StartedAt: now, FinishedAt: now, Channel: "snapshot", State: "STOPPED", FailureClass: "world backup failed"})

	path := filepath.Join(t.TempDir(), "mcupdater.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "mcupdater_last_run_success 0\n")
	assert.Contains(t, text, "mcupdater_last_run_updated 0\n")
	assert.Contains(t, text, `mcupdater_last_run_failure{class="world backup failed"} 1`)
	assert.NotContains(t, text, `state="DOWNLOADED"`)
}
