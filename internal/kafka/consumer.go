package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/earnings"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// SymbolProcessor recomputes and caches one symbol
type SymbolProcessor interface {
	Process(ctx context.Context, symbol string) error
}

// messageReader is the part of kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer handles refresh requests published to the refresh topic.
// A request is handled exactly like one symbol of a batch run.
type Consumer struct {
	reader    messageReader
	topic     string
	processor SymbolProcessor
	logger    zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for refresh requests
func NewConsumer(cfg config.KafkaConfig, processor SymbolProcessor, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.RefreshTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return newConsumer(reader, cfg.RefreshTopic, processor, logger)
}

func newConsumer(reader messageReader, topic string, processor SymbolProcessor, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader:    reader,
		topic:     topic,
		processor: processor,
		logger:    logger,
	}
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().Str("topic", c.topic).Msg("starting refresh consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("refresh consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Error().Err(err).Msg("failed to read message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("failed to process message")
			}
		}
	}
}

// processMessage handles a single Kafka message. Malformed messages and
// other event types are dropped; only processing failures are returned.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req models.RefreshRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.logger.Warn().Err(err).Str("key", string(msg.Key)).Msg("dropping malformed refresh request")
		return nil
	}

	if req.EventType != models.EventRefreshRequested {
		c.logger.Debug().Str("event_type", req.EventType).Msg("ignoring event type")
		return nil
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		c.logger.Warn().Str("key", string(msg.Key)).Msg("dropping refresh request without symbol")
		return nil
	}

	err := c.processor.Process(ctx, symbol)
	switch {
	case err == nil:
		c.logger.Info().Str("symbol", symbol).Msg("refreshed earnings summary")
		return nil
	case earnings.IsSkip(err):
		c.logger.Info().Str("symbol", symbol).Str("reason", err.Error()).Msg("skipped refresh")
		return nil
	default:
		return fmt.Errorf("failed to refresh %s: %w", symbol, err)
	}
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
