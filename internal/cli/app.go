package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Protagonist888/schwab-earnings-batch/internal/cache"
	"github.com/Protagonist888/schwab-earnings-batch/internal/database"
	"github.com/Protagonist888/schwab-earnings-batch/internal/eodhd"
	"github.com/Protagonist888/schwab-earnings-batch/internal/kafka"
	"github.com/Protagonist888/schwab-earnings-batch/internal/pipeline"
)

// components are the connected services a command works with. db and
// producer are nil when disabled in configuration.
type components struct {
	client    *eodhd.Client
	store     *cache.RedisStore
	db        *database.DB
	producer  *kafka.Producer
	processor *pipeline.EarningsProcessor
	closers   []func() error
}

// connect builds the components for the current configuration. Only an
// invalid configuration is an error; Postgres and Kafka are optional and an
// unreachable Postgres is logged and left out.
func (app *App) connect(ctx context.Context) (*components, error) {
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &components{
		client: eodhd.NewClient(cfg.Provider, app.Metrics),
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	c.closers = append(c.closers, redisClient.Close)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Every cache write will fail and be counted per symbol
		app.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis is not reachable")
	}
	cancel()
	c.store = cache.NewRedisStore(redisClient, cfg.Redis, app.Metrics)

	var opts []pipeline.ProcessorOption
	if cfg.Database.Enabled {
		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			app.Logger.Warn().Err(err).Msg("failed to connect to postgres, run history is unavailable")
		} else {
			c.db = db
			c.closers = append(c.closers, db.Close)
			opts = append(opts, pipeline.WithRecorder(db))
			app.Logger.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to postgres")
		}
	}
	if cfg.Kafka.Enabled {
		c.producer = kafka.NewProducer(cfg.Kafka)
		c.closers = append(c.closers, c.producer.Close)
		opts = append(opts, pipeline.WithPublisher(c.producer))
		app.Logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer enabled")
	}

	c.processor = pipeline.NewEarningsProcessor(c.client, c.store, cfg.Batch, app.Logger, opts...)
	return c, nil
}

// runner builds a batch runner over the connected components
func (app *App) runner(c *components, limit int) *pipeline.Runner {
	scheduler := pipeline.NewScheduler(c.processor, app.Config.Batch, app.Logger, pipeline.WithMetrics(app.Metrics))

	opts := []pipeline.RunnerOption{pipeline.WithRunMetrics(app.Metrics), pipeline.WithLimit(limit)}
	if c.db != nil {
		opts = append(opts, pipeline.WithRunRecorder(c.db))
	}
	if c.producer != nil {
		opts = append(opts, pipeline.WithRunPublisher(c.producer))
	}
	return pipeline.NewRunner(c.client, app.Config.Provider.Exchange, scheduler, app.Logger, opts...)
}

// Close releases every connection, newest first
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
