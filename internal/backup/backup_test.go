package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T) string {
	t.Helper()
	world := filepath.Join(t.TempDir(), "minecraft_world")
	require.NoError(t, os.MkdirAll(filepath.Join(world, "region"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(world, "level.dat"), []byte("level"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(world, "region", "r.0.0.mca"), []byte("chunks"), 0o644))
	return world
}

func TestName(t *testing.T) {
	ts := time.Date(2024, 6, 13, 4, 5, 6, 789000, time.Local)

	name := Name(ts, "abc123")
	assert.Equal(t, "world_backup_2024-06-13T04-05-06.000789_sha=abc123", name)
	assert.Equal(t, name, Name(ts, "abc123"))
	assert.NotContains(t, name, ":")

	assert.Equal(t, "world_backup_2024-06-13T04-05-06.000789_sha=", Name(ts, ""))
}

func TestCreate(t *testing.T) {
	world := newWorld(t)
	backupDir := filepath.Join(t.TempDir(), "world_backups")
	now := time.Date(2024, 6, 13, 4, 5, 6, 0, time.Local)

	rec, err := Create(world, backupDir, "abc123", now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(backupDir, Name(now, "abc123")), rec.Path)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, "abc123", rec.Checksum)

	content, err := os.ReadFile(filepath.Join(rec.Path, "region", "r.0.0.mca"))
	require.NoError(t, err)
	assert.Equal(t, "chunks", string(content))
}

func TestCreate_Collision(t *testing.T) {
	world := newWorld(t)
	backupDir := t.TempDir()
	now := time.Now()

	_, err := Create(world, backupDir, "abc123", now)
	require.NoError(t, err)

	_, err = Create(world, backupDir, "abc123", now)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestCreate_MissingWorld(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "abc123", time.Now())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPreflight(t *testing.T) {
	world := newWorld(t)
	require.NoError(t, Preflight(world, filepath.Join(t.TempDir(), "not", "yet", "created")))
}

func TestCheckSpace(t *testing.T) {
	world := newWorld(t)
	backupDir := filepath.Join(t.TempDir(), "world_backups")

	var queried string
	err := checkSpace(world, backupDir, func(path string) (uint64, error) {
		queried = path
		return 3, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 11 bytes, 3 available")
	assert.Equal(t, filepath.Dir(backupDir), queried)

	err = checkSpace(world, backupDir, func(string) (uint64, error) { return 11, nil })
	require.NoError(t, err)

	err = checkSpace(world, backupDir, func(string) (uint64, error) { return 0, errors.New("statfs") })
	require.Error(t, err)
}
