package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// DuplicateEvent announces a detected or confirmed duplicate pair
type DuplicateEvent struct {
	EventType       string          `json:"event_type"` // duplicate.detected, duplicate.confirmed, duplicate.rejected
	SchemaVersion   string          `json:"schema_version,omitempty"`
	MatchID         string          `json:"match_id"`
	SourceListingID string          `json:"source_listing_id"`
	TargetListingID string          `json:"target_listing_id"`
	OverallScore    float64         `json:"overall_score"`
	Confidence      string          `json:"confidence,omitempty"`
	ScoreBreakdown  json.RawMessage `json:"score_breakdown,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// ReviewEvent announces a review item lifecycle change
type ReviewEvent struct {
	EventType       string    `json:"event_type"` // review.needed, review.resolved, review.dismissed
	SchemaVersion   string    `json:"schema_version,omitempty"`
	ReviewItemID    string    `json:"review_item_id"`
	SourceListingID string    `json:"source_listing_id"`
	TargetListingID string    `json:"target_listing_id"`
	MatchScore      float64   `json:"match_score"`
	Decision        string    `json:"decision,omitempty"`
	ReviewedBy      string    `json:"reviewed_by,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func (p *Producer) duplicateMessage(event *DuplicateEvent) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.MatchID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(event.SchemaVersion)},
			{Key: "source_listing_id", Value: []byte(event.SourceListingID)},
			{Key: "target_listing_id", Value: []byte(event.TargetListingID)},
		},
	}, nil
}

func (p *Producer) reviewMessage(event *ReviewEvent) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ReviewItemID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(event.SchemaVersion)},
			{Key: "source_listing_id", Value: []byte(event.SourceListingID)},
			{Key: "target_listing_id", Value: []byte(event.TargetListingID)},
		},
	}, nil
}

// PublishDuplicateEvent publishes a duplicate event to Kafka
func (p *Producer) PublishDuplicateEvent(ctx context.Context, event *DuplicateEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDuplicateEvent")
	defer span.End()

	msg, err := p.duplicateMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish duplicate event")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "success")

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"match_id":   event.MatchID,
		"score":      event.OverallScore,
	}).Debug("Published duplicate event")

	return nil
}

// PublishReviewEvent publishes a review event to Kafka
func (p *Producer) PublishReviewEvent(ctx context.Context, event *ReviewEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishReviewEvent")
	defer span.End()

	msg, err := p.reviewMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish review event")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "success")

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":     event.EventType,
		"review_item_id": event.ReviewItemID,
	}).Debug("Published review event")

	return nil
}

// PublishDuplicateEvents publishes multiple duplicate events in a batch
func (p *Producer) PublishDuplicateEvents(ctx context.Context, events []*DuplicateEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDuplicateEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := p.duplicateMessage(event)
		if err != nil {
			return err
		}
		messages[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish duplicate events batch")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "success")

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published duplicate events batch")

	return nil
}
