// Package logger provides run summary logging.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunStatus is the final status of a sync run.
type RunStatus string

const (
	RunComplete RunStatus = "complete"
	RunPartial  RunStatus = "partial"
	RunAborted  RunStatus = "aborted"
)

// RunSummary is the per-run document written under the log directory:
// one file per run, containing per-component counts and a final status.
type RunSummary struct {
	RunID      uuid.UUID                 `json:"run_id"`
	Mode       string                    `json:"mode"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Status     RunStatus                 `json:"status"`
	Components map[string]ComponentCount `json:"components"`
	Errors     []string                  `json:"errors,omitempty"`
}

// ComponentCount holds per-component counters for a run.
type ComponentCount struct {
	Fetched int `json:"fetched"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunLogger writes one JSON summary document per run.
type RunLogger struct {
	dir    string
	logger *logrus.Logger
}

// NewRunLogger creates a run logger writing under dir.
func NewRunLogger(dir string, logger *logrus.Logger) *RunLogger {
	return &RunLogger{dir: dir, logger: logger}
}

// NewSummary starts a summary for a run in the given mode.
func NewSummary(mode string) *RunSummary {
	return &RunSummary{
		RunID:      uuid.New(),
		Mode:       mode,
		StartedAt:  time.Now().UTC(),
		Components: make(map[string]ComponentCount),
	}
}

// Record merges counts for a component into the summary.
func (s *RunSummary) Record(component string, counts ComponentCount) {
	c := s.Components[component]
	c.Fetched += counts.Fetched
	c.Written += counts.Written
	c.Skipped += counts.Skipped
	c.Failed += counts.Failed
	s.Components[component] = c
}

// AddError appends an error message to the summary.
func (s *RunSummary) AddError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err.Error())
	}
}

// Finalize sets the finish time and derives the status from the
// recorded counters unless a status was forced.
func (s *RunSummary) Finalize(status RunStatus) {
	s.FinishedAt = time.Now().UTC()
	if status != "" {
		s.Status = status
		return
	}
	s.Status = RunComplete
	for _, c := range s.Components {
		if c.Failed > 0 {
			s.Status = RunPartial
			return
		}
	}
}

// Write persists the summary as a JSON document and logs a one-line
// digest.
func (rl *RunLogger) Write(summary *RunSummary) error {
	if err := os.MkdirAll(rl.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		summary.Mode,
		summary.StartedAt.Format("20060102T150405Z"),
		summary.RunID.String()[:8],
	)
	path := filepath.Join(rl.dir, name)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	rl.logger.WithFields(logrus.Fields{
		"run_id": summary.RunID,
		"mode":   summary.Mode,
		"status": summary.Status,
		"file":   path,
	}).Info("Run summary written")

	return nil
}
