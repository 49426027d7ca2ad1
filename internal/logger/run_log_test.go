package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMergesCounts(t *testing.T) {
	s := NewSummary("daily")

	s.Record("races", ComponentCount{Fetched: 10, Written: 10})
	s.Record("races", ComponentCount{Fetched: 5, Written: 4, Failed: 1})
	s.Record("results", ComponentCount{Fetched: 3, Written: 3})

	races := s.Components["races"]
	assert.Equal(t, 15, races.Fetched)
	assert.Equal(t, 14, races.Written)
	assert.Equal(t, 1, races.Failed)
	assert.Equal(t, 3, s.Components["results"].Written)
}

func TestFinalizeDerivesStatus(t *testing.T) {
	t.Run("clean run is complete", func(t *testing.T) {
		s := NewSummary("daily")
		s.Record("races", ComponentCount{Fetched: 10, Written: 10})
		s.Finalize("")
		assert.Equal(t, RunComplete, s.Status)
		assert.False(t, s.FinishedAt.IsZero())
	})

	t.Run("any failed batch makes it partial", func(t *testing.T) {
		s := NewSummary("backfill")
		s.Record("races", ComponentCount{Fetched: 10, Written: 9, Failed: 1})
		s.Finalize("")
		assert.Equal(t, RunPartial, s.Status)
	})

	t.Run("forced status wins", func(t *testing.T) {
		s := NewSummary("backfill")
		s.Record("races", ComponentCount{Written: 10})
		s.Finalize(RunAborted)
		assert.Equal(t, RunAborted, s.Status)
	})
}

func TestAddErrorIgnoresNil(t *testing.T) {
	s := NewSummary("manual")
	s.AddError(nil)
	s.AddError(errors.New("boom"))
	require.Len(t, s.Errors, 1)
	assert.Equal(t, "boom", s.Errors[0])
}

func TestWriteProducesOneDocumentPerRun(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	rl := NewRunLogger(dir, log)

	s := NewSummary("daily")
	s.Record("races", ComponentCount{Fetched: 2, Written: 2})
	s.Finalize("")
	require.NoError(t, rl.Write(s))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "daily_")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var decoded RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.RunID, decoded.RunID)
	assert.Equal(t, RunComplete, decoded.Status)
	assert.Equal(t, 2, decoded.Components["races"].Written)
}
