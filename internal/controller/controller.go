// Package controller orchestrates sync runs: the checkpointed
// historical backfill, the daily incremental pass, and targeted manual
// fetches. Every run writes a summary document and never checkpoints a
// chunk that skipped rows.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/racing-sync/internal/checkpoint"
	"github.com/yourusername/racing-sync/internal/config"
	"github.com/yourusername/racing-sync/internal/fetcher"
	"github.com/yourusername/racing-sync/internal/logger"
	"github.com/yourusername/racing-sync/internal/metrics"
	"github.com/yourusername/racing-sync/internal/repository"
)

const backfillJob = "backfill"

// ErrPartial reports a run that finished but skipped batches; the data
// it covered is incomplete and the run should be repeated.
var ErrPartial = errors.New("run completed with skipped batches")

// The controller depends on the fetchers and calculators through the
// methods it calls, not their concrete types.
type (
	referenceFetcher interface {
		FetchCourses(ctx context.Context) (repository.BatchResult, error)
		FetchBookmakers(ctx context.Context) (repository.BatchResult, error)
	}
	peopleFetcher interface {
		FetchJockeys(ctx context.Context) (repository.BatchResult, error)
		FetchTrainers(ctx context.Context) (repository.BatchResult, error)
		FetchOwners(ctx context.Context) (repository.BatchResult, error)
	}
	raceFetcher interface {
		FetchWindow(ctx context.Context, from, to time.Time) (fetcher.RaceSummary, error)
	}
	resultFetcher interface {
		FetchWindow(ctx context.Context, from, to time.Time) (fetcher.ResultSummary, error)
	}
	statsRunner interface {
		RunDaily(ctx context.Context) error
		RunWeekly(ctx context.Context) error
	}
)

// Controller wires the fetchers, calculators and checkpoint store into
// runnable sync modes.
type Controller struct {
	cfg        *config.Config
	reference  referenceFetcher
	people     peopleFetcher
	races      raceFetcher
	results    resultFetcher
	stats      statsRunner
	checkpoint *checkpoint.Store
	runLog     *logger.RunLogger
	logger     *logrus.Logger
	now        func() time.Time
}

// New creates a controller.
func New(
	cfg *config.Config,
	reference referenceFetcher,
	people peopleFetcher,
	races raceFetcher,
	results resultFetcher,
	statsService statsRunner,
	store *checkpoint.Store,
	runLog *logger.RunLogger,
	log *logrus.Logger,
) *Controller {
	return &Controller{
		cfg:        cfg,
		reference:  reference,
		people:     people,
		races:      races,
		results:    results,
		stats:      statsService,
		checkpoint: store,
		runLog:     runLog,
		logger:     log,
		now:        time.Now,
	}
}

// Backfill walks month chunks from the configured start date to today,
// resuming after the last checkpointed chunk. A chunk is only
// checkpointed when every batch in it landed; a chunk with skipped
// batches is retried on the next run.
func (c *Controller) Backfill(ctx context.Context) error {
	summary := logger.NewSummary("backfill")
	defer c.writeSummary(summary)

	start, err := time.Parse("2006-01-02", c.cfg.Sync.BackfillStartDate)
	if err != nil {
		summary.Finalize(logger.RunAborted)
		return fmt.Errorf("invalid backfill start date: %w", err)
	}
	end := c.now().UTC().Truncate(24 * time.Hour)

	chunks := MonthChunks(start, end)
	resumeAfter := ""
	cp, err := c.checkpoint.Load(backfillJob)
	if err != nil {
		summary.Finalize(logger.RunAborted)
		return err
	}
	if cp != nil {
		resumeAfter = cp.LastCompletedChunk
		c.logger.WithField("last_completed_chunk", resumeAfter).Info("Resuming backfill from checkpoint")
	}

	completed := 0
	for _, chunk := range chunks {
		if chunk.Label <= resumeAfter {
			completed++
			continue
		}
		if ctx.Err() != nil {
			summary.Finalize(logger.RunAborted)
			return ctx.Err()
		}

		clean, err := c.syncChunk(ctx, chunk, summary)
		if err != nil {
			summary.AddError(err)
			summary.Finalize(logger.RunAborted)
			return fmt.Errorf("chunk %s failed: %w", chunk.Label, err)
		}
		if !clean {
			// Skipped batches mean missing rows; leave the checkpoint
			// behind this chunk so the next run replays it.
			c.logger.WithField("chunk", chunk.Label).Warn("Chunk had skipped batches, not checkpointing")
			summary.Finalize(logger.RunPartial)
			return ErrPartial
		}

		completed++
		metrics.ChunksCompletedTotal.Inc()
		metrics.BackfillProgress.Set(float64(completed) / float64(len(chunks)))

		if err := c.checkpoint.Save(&checkpoint.Checkpoint{
			Job:                backfillJob,
			StartDate:          start,
			EndDate:            end,
			LastCompletedChunk: chunk.Label,
			LastChunkEndDate:   chunk.To,
			ChunksCompleted:    completed,
			TotalChunks:        len(chunks),
		}); err != nil {
			summary.AddError(err)
			summary.Finalize(logger.RunAborted)
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"chunk":     chunk.Label,
			"completed": completed,
			"total":     len(chunks),
		}).Info("Backfill chunk complete")
	}

	metrics.LastSyncTimestamp.WithLabelValues("backfill").SetToCurrentTime()
	summary.Finalize("")
	return nil
}

// syncChunk fetches one chunk's racecards then results. It reports
// whether every batch landed. The per-chunk ceiling is a soft one: a
// slow chunk is logged so the operator can see the backfill dragging,
// never cancelled mid-write.
func (c *Controller) syncChunk(ctx context.Context, chunk Chunk, summary *logger.RunSummary) (bool, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.ChunkDuration.Observe(elapsed.Seconds())
		if ceiling := c.cfg.Sync.ChunkTimeout(); elapsed > ceiling {
			c.logger.WithFields(logrus.Fields{
				"chunk":   chunk.Label,
				"elapsed": elapsed.Round(time.Second).String(),
				"ceiling": ceiling.String(),
			}).Warn("Chunk ran past its time ceiling")
		}
	}()

	raceSummary, err := c.races.FetchWindow(ctx, chunk.From, chunk.To)
	recordRaces(summary, raceSummary)
	if err != nil {
		return false, err
	}

	resultSummary, err := c.results.FetchWindow(ctx, chunk.From, chunk.To)
	recordResults(summary, resultSummary)
	if err != nil {
		return false, err
	}

	return raceSummary.FailedBatches == 0 && resultSummary.FailedBatches == 0, nil
}

// Daily runs the incremental pass: any master refresh that is due
// today, then racecards and results over the trailing window,
// re-fetching recent days so late result corrections are absorbed.
func (c *Controller) Daily(ctx context.Context) error {
	summary := logger.NewSummary("daily")
	defer c.writeSummary(summary)

	now := c.now().UTC().Truncate(24 * time.Hour)

	// Masters run ahead of the window so new people and courses exist
	// before today's runners reference them.
	if now.Day() == 1 {
		if err := c.syncReference(ctx, summary); err != nil {
			summary.AddError(err)
			summary.Finalize(logger.RunAborted)
			return err
		}
	}
	if now.Weekday() == time.Sunday {
		if err := c.syncPeople(ctx, summary); err != nil {
			summary.AddError(err)
			summary.Finalize(logger.RunAborted)
			return err
		}
	}

	// The window trails today; results for recent days are re-fetched
	// so late corrections are absorbed.
	from := now.AddDate(0, 0, -c.cfg.Sync.DailyWindowDays)

	raceSummary, err := c.races.FetchWindow(ctx, from, now)
	recordRaces(summary, raceSummary)
	if err != nil {
		summary.AddError(err)
		summary.Finalize(logger.RunAborted)
		return err
	}

	resultSummary, err := c.results.FetchWindow(ctx, from, now)
	recordResults(summary, resultSummary)
	if err != nil {
		summary.AddError(err)
		summary.Finalize(logger.RunAborted)
		return err
	}

	metrics.LastSyncTimestamp.WithLabelValues("daily").SetToCurrentTime()
	if raceSummary.FailedBatches+resultSummary.FailedBatches > 0 {
		summary.Finalize(logger.RunPartial)
		return ErrPartial
	}
	summary.Finalize("")
	return nil
}

// Manual fetches one table family over an explicit window. Table names
// match the CLI's --table values.
func (c *Controller) Manual(ctx context.Context, table string, from, to time.Time) error {
	summary := logger.NewSummary("manual_" + table)
	defer c.writeSummary(summary)

	var err error
	switch table {
	case "courses":
		var result repository.BatchResult
		result, err = c.reference.FetchCourses(ctx)
		summary.Record("courses", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	case "bookmakers":
		var result repository.BatchResult
		result, err = c.reference.FetchBookmakers(ctx)
		summary.Record("bookmakers", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	case "jockeys":
		var result repository.BatchResult
		result, err = c.people.FetchJockeys(ctx)
		summary.Record("jockeys", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	case "trainers":
		var result repository.BatchResult
		result, err = c.people.FetchTrainers(ctx)
		summary.Record("trainers", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	case "owners":
		var result repository.BatchResult
		result, err = c.people.FetchOwners(ctx)
		summary.Record("owners", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	case "races":
		raceSummary, ferr := c.races.FetchWindow(ctx, from, to)
		err = ferr
		recordRaces(summary, raceSummary)
	case "results":
		resultSummary, ferr := c.results.FetchWindow(ctx, from, to)
		err = ferr
		recordResults(summary, resultSummary)
	case "statistics":
		err = c.stats.RunWeekly(ctx)
	default:
		summary.Finalize(logger.RunAborted)
		return fmt.Errorf("unknown table %q", table)
	}

	if err != nil {
		summary.AddError(err)
		summary.Finalize(logger.RunAborted)
		return err
	}

	metrics.LastSyncTimestamp.WithLabelValues("manual").SetToCurrentTime()
	summary.Finalize("")
	return nil
}

// HorsePass re-walks the daily racecard window once a day. Racecards
// carry the full runner pedigree, so this is what picks up horses whose
// first appearance was enriched from a stale cache or a failed lookup.
func (c *Controller) HorsePass(ctx context.Context) error {
	summary := logger.NewSummary("horse_pass")
	defer c.writeSummary(summary)

	now := c.now().UTC().Truncate(24 * time.Hour)
	from := now.AddDate(0, 0, -c.cfg.Sync.DailyWindowDays)

	raceSummary, err := c.races.FetchWindow(ctx, from, now)
	recordRaces(summary, raceSummary)
	if err != nil {
		summary.AddError(err)
		summary.Finalize(logger.RunAborted)
		return err
	}

	metrics.LastSyncTimestamp.WithLabelValues("horse_pass").SetToCurrentTime()
	if raceSummary.FailedBatches > 0 {
		summary.Finalize(logger.RunPartial)
		return ErrPartial
	}
	summary.Finalize("")
	return nil
}

// SyncMasters refreshes the reference and people tables. The scheduler
// calls this on its own cadence; daily runs pick the due parts up
// through syncReference/syncPeople.
func (c *Controller) SyncMasters(ctx context.Context, includeReference bool) error {
	summary := logger.NewSummary("masters")
	defer c.writeSummary(summary)

	if includeReference {
		if err := c.syncReference(ctx, summary); err != nil {
			summary.AddError(err)
			summary.Finalize(logger.RunAborted)
			return err
		}
	}
	if err := c.syncPeople(ctx, summary); err != nil {
		summary.AddError(err)
		summary.Finalize(logger.RunAborted)
		return err
	}

	summary.Finalize("")
	return nil
}

func (c *Controller) syncReference(ctx context.Context, summary *logger.RunSummary) error {
	result, err := c.reference.FetchCourses(ctx)
	summary.Record("courses", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	if err != nil {
		return err
	}

	result, err = c.reference.FetchBookmakers(ctx)
	summary.Record("bookmakers", logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
	return err
}

func (c *Controller) syncPeople(ctx context.Context, summary *logger.RunSummary) error {
	for _, step := range []struct {
		name  string
		fetch func(context.Context) (repository.BatchResult, error)
	}{
		{"jockeys", c.people.FetchJockeys},
		{"trainers", c.people.FetchTrainers},
		{"owners", c.people.FetchOwners},
	} {
		result, err := step.fetch(ctx)
		summary.Record(step.name, logger.ComponentCount{Written: result.Written, Failed: result.FailedBatches})
		if err != nil {
			return err
		}
	}
	return nil
}

// RunStatistics runs a calculator pass on behalf of the scheduler.
func (c *Controller) RunStatistics(ctx context.Context, weekly bool) error {
	if weekly {
		return c.stats.RunWeekly(ctx)
	}
	return c.stats.RunDaily(ctx)
}

func (c *Controller) writeSummary(summary *logger.RunSummary) {
	if summary.Status == "" {
		summary.Finalize("")
	}
	if err := c.runLog.Write(summary); err != nil {
		c.logger.WithError(err).Error("Failed to write run summary")
	}
}

func recordRaces(summary *logger.RunSummary, s fetcher.RaceSummary) {
	summary.Record("races", logger.ComponentCount{Fetched: s.Races, Written: s.RowsWritten, Failed: s.FailedBatches})
	summary.Record("runners", logger.ComponentCount{Fetched: s.Runners})
	summary.Record("horses", logger.ComponentCount{Fetched: s.HorsesDiscovered, Written: s.HorsesEnriched})
}

func recordResults(summary *logger.RunSummary, s fetcher.ResultSummary) {
	summary.Record("results", logger.ComponentCount{Fetched: s.Results, Written: s.RowsWritten, Failed: s.FailedBatches})
}
