package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// UniverseSource lists the symbols to process in one run
type UniverseSource interface {
	GetSymbols(ctx context.Context, exchange string) ([]string, error)
}

// RunRecorder persists batch run records
type RunRecorder interface {
	CreateBatchRun(run *models.BatchRun) error
	FinishBatchRun(run *models.BatchRun) error
}

// RunPublisher announces finished runs
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run *models.BatchRun) error
}

// Runner loads the universe and drives the scheduler over it
type Runner struct {
	universe  UniverseSource
	exchange  string
	scheduler *Scheduler
	recorder  RunRecorder
	publisher RunPublisher
	limit     int
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunRecorder persists a record per run
func WithRunRecorder(r RunRecorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

// WithRunPublisher publishes a completion event per run
func WithRunPublisher(p RunPublisher) RunnerOption {
	return func(rn *Runner) { rn.publisher = p }
}

// WithLimit processes only the first n symbols of the universe
func WithLimit(n int) RunnerOption {
	return func(rn *Runner) { rn.limit = n }
}

// WithRunMetrics records run tallies
func WithRunMetrics(m *metrics.Metrics) RunnerOption {
	return func(rn *Runner) { rn.metrics = m }
}

// NewRunner creates a runner for the given exchange's universe
func NewRunner(universe UniverseSource, exchange string, scheduler *Scheduler, logger zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		universe:  universe,
		exchange:  exchange,
		scheduler: scheduler,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce loads the symbol universe and processes it. Failure to load the
// universe is the only error that is not contained per symbol.
func (r *Runner) RunOnce(ctx context.Context) (models.RunResult, error) {
	symbols, err := r.universe.GetSymbols(ctx, r.exchange)
	if err != nil {
		return models.RunResult{}, fmt.Errorf("failed to load symbol universe: %w", err)
	}
	r.logger.Info().Int("symbols", len(symbols)).Str("exchange", r.exchange).Msg("loaded symbol universe")

	return r.RunSymbols(ctx, symbols)
}

// RunSymbols processes an explicit universe
func (r *Runner) RunSymbols(ctx context.Context, symbols []string) (models.RunResult, error) {
	if r.limit > 0 && len(symbols) > r.limit {
		symbols = symbols[:r.limit]
	}

	run := &models.BatchRun{
		ID:           uuid.NewString(),
		Status:       models.RunStatusRunning,
		UniverseSize: len(symbols),
		GroupSize:    r.scheduler.GroupSize(),
		StartedAt:    time.Now().UTC(),
	}
	if r.recorder != nil {
		if err := r.recorder.CreateBatchRun(run); err != nil {
			r.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record batch run start")
		}
	}

	result, err := r.scheduler.Run(ctx, symbols)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Processed = result.Processed
	run.Succeeded = result.Succeeded
	run.Failed = result.Failed
	run.Status = models.RunStatusCompleted
	if err != nil {
		run.Status = models.RunStatusAborted
	}

	// The context may already be cancelled; bookkeeping still gets a chance
	bookkeeping := context.WithoutCancel(ctx)
	if r.recorder != nil {
		if recErr := r.recorder.FinishBatchRun(run); recErr != nil {
			r.logger.Warn().Err(recErr).Str("run_id", run.ID).Msg("failed to record batch run result")
		}
	}
	if r.publisher != nil {
		if pubErr := r.publisher.PublishRunCompleted(bookkeeping, run); pubErr != nil {
			r.logger.Warn().Err(pubErr).Str("run_id", run.ID).Msg("failed to publish run event")
		}
	}
	r.metrics.RecordRun(run.Status, result.Processed, result.Succeeded, result.Failed, finished)

	r.logger.Info().
		Str("run_id", run.ID).
		Str("status", run.Status).
		Int("processed", result.Processed).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", finished.Sub(run.StartedAt)).
		Msg("batch run finished")

	if err != nil {
		return result, fmt.Errorf("batch run interrupted: %w", err)
	}
	return result, nil
}

// Schedule runs RunOnce every interval until ctx is cancelled. Runs never
// overlap; a failed universe load is logged and attempted again on the next tick.
func (r *Runner) Schedule(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error().Err(err).Msg("scheduled batch run failed")
			}
		}
	}
}
