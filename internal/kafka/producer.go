package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer       messageWriter
	topic        string
	refreshTopic string
	now          func() time.Time
}

// NewProducer creates a new Kafka producer. Each message names its own
// topic so one writer serves both the event and refresh topics.
func NewProducer(cfg config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg.Topic, cfg.RefreshTopic)
}

func newProducer(writer messageWriter, topic, refreshTopic string) *Producer {
	return &Producer{
		writer:       writer,
		topic:        topic,
		refreshTopic: refreshTopic,
		now:          time.Now,
	}
}

// PublishSummaryUpdated publishes a summary updated event
func (p *Producer) PublishSummaryUpdated(ctx context.Context, summary *models.EarningsSummary) error {
	event := models.SummaryEvent{
		EventType: models.EventSummaryUpdated,
		Summary:   summary,
		Symbol:    summary.Symbol,
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, p.topic, summary.Symbol, event)
}

// PublishRunCompleted publishes a batch run completed event
func (p *Producer) PublishRunCompleted(ctx context.Context, run *models.BatchRun) error {
	event := models.RunEvent{
		EventType: models.EventRunCompleted,
		RunID:     run.ID,
		Result:    run.Result(),
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, p.topic, run.ID, event)
}

// PublishRefreshRequest asks the refresh consumer to recompute one symbol
func (p *Producer) PublishRefreshRequest(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	event := models.RefreshRequest{
		EventType:   models.EventRefreshRequested,
		Symbol:      symbol,
		RequestedAt: p.now().UTC(),
	}
	return p.publish(ctx, p.refreshTopic, symbol, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
