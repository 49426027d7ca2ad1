package controller

import "time"

// Chunk is one calendar-month slice of a backfill. Label is the
// chunk's start month, which doubles as the checkpoint cursor.
type Chunk struct {
	From  time.Time
	To    time.Time
	Label string
}

// MonthChunks slices [start, end] into calendar-month chunks. The
// first and last chunks are clipped to the requested bounds.
func MonthChunks(start, end time.Time) []Chunk {
	if end.Before(start) {
		return nil
	}

	var chunks []Chunk
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		next := cursor.AddDate(0, 1, 0)

		from := cursor
		if from.Before(start) {
			from = start
		}
		to := next.AddDate(0, 0, -1)
		if to.After(end) {
			to = end
		}

		chunks = append(chunks, Chunk{
			From:  from,
			To:    to,
			Label: cursor.Format("2006-01"),
		})
		cursor = next
	}

	return chunks
}
