package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/earnings"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// MarketData fetches the per-symbol inputs of the estimator
type MarketData interface {
	GetEarnings(ctx context.Context, symbol string, from, to time.Time) ([]models.EarningsEvent, error)
	GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)
}

// SummaryStore persists a computed summary
type SummaryStore interface {
	Store(ctx context.Context, summary *models.EarningsSummary) error
}

// SummaryPublisher announces a refreshed summary to downstream consumers
type SummaryPublisher interface {
	PublishSummaryUpdated(ctx context.Context, summary *models.EarningsSummary) error
}

// SummaryRecorder keeps a queryable history of summaries
type SummaryRecorder interface {
	UpsertEarningsSummary(summary *models.EarningsSummary) error
}

// EarningsProcessor computes and caches the summary for one symbol
type EarningsProcessor struct {
	data         MarketData
	store        SummaryStore
	publisher    SummaryPublisher
	recorder     SummaryRecorder
	historyYears int
	forwardYears int
	now          func() time.Time
	logger       zerolog.Logger
}

// ProcessorOption configures an EarningsProcessor
type ProcessorOption func(*EarningsProcessor)

// WithPublisher publishes every stored summary. Publish failures are logged
// and do not fail the symbol.
func WithPublisher(p SummaryPublisher) ProcessorOption {
	return func(ep *EarningsProcessor) { ep.publisher = p }
}

// WithRecorder records every stored summary. Record failures are logged and
// do not fail the symbol.
func WithRecorder(r SummaryRecorder) ProcessorOption {
	return func(ep *EarningsProcessor) { ep.recorder = r }
}

// WithClock overrides the reference time
func WithClock(now func() time.Time) ProcessorOption {
	return func(ep *EarningsProcessor) { ep.now = now }
}

// NewEarningsProcessor creates a processor reading from data and writing to store
func NewEarningsProcessor(data MarketData, store SummaryStore, cfg config.BatchConfig, logger zerolog.Logger, opts ...ProcessorOption) *EarningsProcessor {
	p := &EarningsProcessor{
		data:         data,
		store:        store,
		historyYears: cfg.HistoryYears,
		forwardYears: cfg.ForwardYears,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compute fetches the symbol's earnings calendar and price history and runs
// the estimator. Skip outcomes are returned as earnings skip errors.
func (p *EarningsProcessor) Compute(ctx context.Context, symbol string) (*models.EarningsSummary, error) {
	now := p.now().UTC()
	today := models.NormalizeDate(now)
	from := today.AddDate(-p.historyYears, 0, 0)

	events, err := p.data.GetEarnings(ctx, symbol, from, today.AddDate(p.forwardYears, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings for %s: %w", symbol, err)
	}
	if len(events) == 0 {
		return nil, earnings.ErrNoEarnings
	}

	prices, err := p.data.GetPrices(ctx, symbol, from, today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	return earnings.Estimate(symbol, events, prices, now)
}

// Process computes the symbol's summary and writes it to the cache. A nil
// return means the summary was stored.
func (p *EarningsProcessor) Process(ctx context.Context, symbol string) error {
	summary, err := p.Compute(ctx, symbol)
	if err != nil {
		return err
	}

	if err := p.store.Store(ctx, summary); err != nil {
		return err
	}

	if p.recorder != nil {
		if err := p.recorder.UpsertEarningsSummary(summary); err != nil {
			p.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to record summary history")
		}
	}
	if p.publisher != nil {
		if err := p.publisher.PublishSummaryUpdated(ctx, summary); err != nil {
			p.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish summary event")
		}
	}
	return nil
}
