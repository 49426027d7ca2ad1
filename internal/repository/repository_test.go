package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{i}
	}
	return rows
}

func TestSplitBatches(t *testing.T) {
	tests := []struct {
		name  string
		rows  int
		size  int
		sizes []int
	}{
		{"empty", 0, 100, nil},
		{"single partial batch", 7, 100, []int{7}},
		{"exact multiple", 200, 100, []int{100, 100}},
		{"remainder", 250, 100, []int{100, 100, 50}},
		{"size one", 3, 1, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := splitBatches(rowsOf(tt.rows), tt.size)
			require.Len(t, batches, len(tt.sizes))
			total := 0
			for i, batch := range batches {
				assert.Len(t, batch, tt.sizes[i])
				total += len(batch)
			}
			assert.Equal(t, tt.rows, total, "no row is lost or duplicated")
		})
	}
}

func TestNewBatchWriterAppliesSettings(t *testing.T) {
	w := NewBatchWriter(nil, Settings{BatchSize: 250, WriteConcurrency: 2}, nil)
	assert.Equal(t, 250, w.batchSize)
	assert.Equal(t, 2, cap(w.sem), "semaphore bounds concurrent transactions")
}

func TestNewBatchWriterDefaults(t *testing.T) {
	w := NewBatchWriter(nil, Settings{}, nil)
	assert.Equal(t, defaultBatchSize, w.batchSize)
	assert.Equal(t, defaultWriteConcurrency, cap(w.sem))
}
