package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/earnings"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// Scheduling defaults sized for a 1000 requests/minute provider limit
const (
	DefaultGroupSize = 900
	DefaultCooldown  = 60 * time.Second
)

// Processor handles one symbol. A nil error means a summary was produced.
type Processor interface {
	Process(ctx context.Context, symbol string) error
}

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(ctx context.Context, symbol string) error

// Process calls f
func (f ProcessorFunc) Process(ctx context.Context, symbol string) error {
	return f(ctx, symbol)
}

// Scheduler runs a processor over a universe in fixed-size concurrent
// groups, pausing between groups to stay under the provider's rate limit
type Scheduler struct {
	processor Processor
	groupSize int
	cooldown  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithSleep replaces the cooldown wait
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SchedulerOption {
	return func(s *Scheduler) { s.sleep = sleep }
}

// WithMetrics records symbol outcomes and group durations
func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates a scheduler from batch configuration
func NewScheduler(processor Processor, cfg config.BatchConfig, logger zerolog.Logger, opts ...SchedulerOption) *Scheduler {
	groupSize := cfg.GroupSize
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	cooldown := cfg.Cooldown
	if cooldown < 0 {
		cooldown = 0
	}

	s := &Scheduler{
		processor: processor,
		groupSize: groupSize,
		cooldown:  cooldown,
		sleep:     sleepContext,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GroupSize returns the configured group size
func (s *Scheduler) GroupSize() int {
	return s.groupSize
}

// Partition splits universe into contiguous groups of at most size symbols
func Partition(universe []string, size int) [][]string {
	if size <= 0 {
		size = DefaultGroupSize
	}
	groups := make([][]string, 0, (len(universe)+size-1)/size)
	for start := 0; start < len(universe); start += size {
		end := start + size
		if end > len(universe) {
			end = len(universe)
		}
		groups = append(groups, universe[start:end])
	}
	return groups
}

// Run processes every symbol in universe. Groups run strictly in order; the
// symbols within a group run concurrently and the group is joined before the
// tallies are updated. The error is non-nil only if ctx was cancelled, in
// which case the result covers the groups that finished.
func (s *Scheduler) Run(ctx context.Context, universe []string) (models.RunResult, error) {
	var total models.RunResult
	groups := Partition(universe, s.groupSize)

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		start := time.Now()
		result := s.runGroup(ctx, group)
		s.metrics.ObserveGroup(time.Since(start))
		total.Add(result)

		s.logger.Info().
			Int("group", i+1).
			Int("groups", len(groups)).
			Int("size", len(group)).
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Int("processed_total", total.Processed).
			Dur("elapsed", time.Since(start)).
			Msg("group finished")

		if i < len(groups)-1 && s.cooldown > 0 {
			s.logger.Info().Dur("cooldown", s.cooldown).Msg("waiting for rate limit window")
			if err := s.sleep(ctx, s.cooldown); err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

func (s *Scheduler) runGroup(ctx context.Context, group []string) models.RunResult {
	outcomes := make([]error, len(group))

	var wg sync.WaitGroup
	for i, symbol := range group {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			outcomes[i] = s.processSymbol(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	result := models.RunResult{Processed: len(group)}
	for i, err := range outcomes {
		symbol := group[i]
		switch {
		case err == nil:
			result.Succeeded++
			s.metrics.RecordSymbol(metrics.OutcomeSuccess)
			s.logger.Debug().Str("symbol", symbol).Msg("cached earnings summary")
		case earnings.IsSkip(err):
			result.Failed++
			s.metrics.RecordSymbol(metrics.OutcomeSkipped)
			s.logger.Info().Str("symbol", symbol).Str("reason", err.Error()).Msg("skipped symbol")
		default:
			result.Failed++
			s.metrics.RecordSymbol(metrics.OutcomeError)
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to process symbol")
		}
	}
	return result
}

// processSymbol contains any failure, including a panic, to the one symbol
func (s *Scheduler) processSymbol(ctx context.Context, symbol string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", symbol, r)
		}
	}()
	return s.processor.Process(ctx, symbol)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
