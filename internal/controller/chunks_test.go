package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthChunks(t *testing.T) {
	t.Run("spans calendar months", func(t *testing.T) {
		chunks := MonthChunks(date(2024, 1, 1), date(2024, 3, 31))
		require.Len(t, chunks, 3)

		assert.Equal(t, "2024-01", chunks[0].Label)
		assert.Equal(t, date(2024, 1, 1), chunks[0].From)
		assert.Equal(t, date(2024, 1, 31), chunks[0].To)

		assert.Equal(t, "2024-02", chunks[1].Label)
		assert.Equal(t, date(2024, 2, 29), chunks[1].To) // leap year

		assert.Equal(t, "2024-03", chunks[2].Label)
		assert.Equal(t, date(2024, 3, 31), chunks[2].To)
	})

	t.Run("clips first and last chunk to bounds", func(t *testing.T) {
		chunks := MonthChunks(date(2024, 1, 15), date(2024, 2, 10))
		require.Len(t, chunks, 2)
		assert.Equal(t, date(2024, 1, 15), chunks[0].From)
		assert.Equal(t, date(2024, 1, 31), chunks[0].To)
		assert.Equal(t, date(2024, 2, 1), chunks[1].From)
		assert.Equal(t, date(2024, 2, 10), chunks[1].To)
	})

	t.Run("single partial month", func(t *testing.T) {
		chunks := MonthChunks(date(2024, 6, 10), date(2024, 6, 20))
		require.Len(t, chunks, 1)
		assert.Equal(t, date(2024, 6, 10), chunks[0].From)
		assert.Equal(t, date(2024, 6, 20), chunks[0].To)
	})

	t.Run("end before start", func(t *testing.T) {
		assert.Nil(t, MonthChunks(date(2024, 2, 1), date(2024, 1, 1)))
	})

	t.Run("labels sort chronologically across years", func(t *testing.T) {
		chunks := MonthChunks(date(2023, 11, 1), date(2024, 2, 1))
		require.Len(t, chunks, 4)
		for i := 1; i < len(chunks); i++ {
			assert.Greater(t, chunks[i].Label, chunks[i-1].Label)
		}
	})
}
