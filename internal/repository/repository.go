// Package repository implements upsert-based persistence over
// PostgreSQL for the racing warehouse. Every write is an upsert keyed
// by the entity's primary key; writes are grouped into batches and a
// failing batch is retried once before being skipped and counted.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/racing-sync/internal/database"
	"github.com/yourusername/racing-sync/internal/metrics"
)

const (
	defaultBatchSize        = 100
	defaultWriteConcurrency = 4
	batchRetryPause         = 500 * time.Millisecond
)

// Settings tune the batched write path.
type Settings struct {
	// BatchSize is the number of rows per batch transaction.
	BatchSize int
	// WriteConcurrency bounds how many batch transactions run at once.
	WriteConcurrency int
}

// Repositories holds all repository implementations
type Repositories struct {
	Reference  ReferenceRepository
	People     PeopleRepository
	Horse      HorseRepository
	Race       RaceRepository
	Result     ResultRepository
	Statistics StatisticsRepository
}

// NewRepositories creates all repository implementations sharing one
// batch writer, so the write concurrency bound holds across them.
func NewRepositories(db *database.DB, settings Settings, logger *logrus.Logger) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	w := NewBatchWriter(db, settings, logger)
	return &Repositories{
		Reference:  NewPostgresReferenceRepository(db, w, logger),
		People:     NewPostgresPeopleRepository(db, w, logger),
		Horse:      NewPostgresHorseRepository(db, w, logger),
		Race:       NewPostgresRaceRepository(db, w, logger),
		Result:     NewPostgresResultRepository(db, w, logger),
		Statistics: NewPostgresStatisticsRepository(db, logger),
	}, nil
}

// BatchWriter owns the batched write path: it splits rows into batches
// of the configured size and bounds how many batch transactions run at
// once across every repository sharing it.
type BatchWriter struct {
	db        *database.DB
	logger    *logrus.Logger
	batchSize int
	sem       chan struct{}
}

// NewBatchWriter creates a batch writer. Zero settings fall back to the
// defaults.
func NewBatchWriter(db *database.DB, settings Settings, logger *logrus.Logger) *BatchWriter {
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaultBatchSize
	}
	if settings.WriteConcurrency <= 0 {
		settings.WriteConcurrency = defaultWriteConcurrency
	}
	return &BatchWriter{
		db:        db,
		logger:    logger,
		batchSize: settings.BatchSize,
		sem:       make(chan struct{}, settings.WriteConcurrency),
	}
}

// upsertBatches sends rows as pgx batches. Each row is one execution of
// query with its argument list. A failed batch is retried once after a
// short pause; if it still fails it is logged, counted and skipped so
// the surrounding chunk is not marked complete.
func (w *BatchWriter) upsertBatches(ctx context.Context, table, query string, rows [][]interface{}) (BatchResult, error) {
	batches := splitBatches(rows, w.batchSize)
	results := make([]BatchResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range batches {
		g.Go(func() error {
			select {
			case w.sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-w.sem }()

			err := w.sendBatch(gctx, query, chunk)
			if err != nil {
				select {
				case <-time.After(batchRetryPause):
				case <-gctx.Done():
					return gctx.Err()
				}
				err = w.sendBatch(gctx, query, chunk)
			}

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				w.logger.WithError(err).WithFields(logrus.Fields{
					"table": table,
					"rows":  len(chunk),
				}).Error("Batch upsert failed after retry, skipping batch")
				metrics.BatchesFailedTotal.WithLabelValues(table).Inc()
				results[i].FailedBatches++
				return nil
			}

			metrics.RowsUpsertedTotal.WithLabelValues(table).Add(float64(len(chunk)))
			results[i].Written += len(chunk)
			return nil
		})
	}

	err := g.Wait()

	var result BatchResult
	for _, r := range results {
		result.Add(r)
	}
	return result, err
}

// splitBatches partitions rows into batches of at most size rows.
func splitBatches(rows [][]interface{}, size int) [][][]interface{} {
	if len(rows) == 0 {
		return nil
	}
	batches := make([][][]interface{}, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

// sendBatch executes one pgx batch inside a transaction so a partial
// batch never commits.
func (w *BatchWriter) sendBatch(ctx context.Context, query string, rows [][]interface{}) error {
	return w.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, args := range rows {
			batch.Queue(query, args...)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for range rows {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("batch exec failed: %w", err)
			}
		}
		return nil
	})
}
