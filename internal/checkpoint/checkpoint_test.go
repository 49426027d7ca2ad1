package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load("backfill")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing checkpoint should load as nil")

	cp := &Checkpoint{
		Job:                "backfill",
		StartDate:          time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		LastCompletedChunk: "2015-03",
		LastChunkEndDate:   time.Date(2015, 3, 31, 0, 0, 0, 0, time.UTC),
		ChunksCompleted:    3,
		TotalChunks:        114,
	}
	require.NoError(t, store.Save(cp))

	loaded, err = store.Load("backfill")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "2015-03", loaded.LastCompletedChunk)
	assert.Equal(t, time.Date(2015, 3, 31, 0, 0, 0, 0, time.UTC), loaded.LastChunkEndDate)
	assert.Equal(t, 3, loaded.ChunksCompleted)
	assert.Equal(t, 114, loaded.TotalChunks)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestSaveNeverRegresses(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2020-05"}))

	err := store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2020-03"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChunkRegression)

	loaded, err := store.Load("backfill")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "2020-05", loaded.LastCompletedChunk, "rejected save leaves the file untouched")

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2020-06"}))
	loaded, err = store.Load("backfill")
	require.NoError(t, err)
	assert.Equal(t, "2020-06", loaded.LastCompletedChunk)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2021-01"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "backfill.json", entries[0].Name())
}

func TestCorruptCheckpointDoesNotBlockSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "backfill.json"), []byte("{torn"), 0o644))

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2022-01"}))
	loaded, err := store.Load("backfill")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "2022-01", loaded.LastCompletedChunk)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2020-01"}))
	require.NoError(t, store.Clear("backfill"))

	loaded, err := store.Load("backfill")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing twice is fine.
	require.NoError(t, store.Clear("backfill"))
}

func TestJobsAreIndependent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Checkpoint{Job: "backfill", LastCompletedChunk: "2020-01"}))
	require.NoError(t, store.Save(&Checkpoint{Job: "results_repair", LastCompletedChunk: "2023-09"}))

	a, err := store.Load("backfill")
	require.NoError(t, err)
	b, err := store.Load("results_repair")
	require.NoError(t, err)
	assert.Equal(t, "2020-01", a.LastCompletedChunk)
	assert.Equal(t, "2023-09", b.LastCompletedChunk)
}
