package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the producer relies on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes run events and consolidated records to Kafka
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	var compression kafka.Compression
	switch config.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	default:
		compression = 0 // No compression
	}

	// Topic stays empty on the writer so that every message names its own
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{}, // Hash by key for partition affinity
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Compression:            compression,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, config, logger), nil
}

func newProducer(writer messageWriter, config ProducerConfig, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}
}

func toKafkaHeaders(headers MessageHeaders) []kafka.Header {
	kafkaHeaders := make([]kafka.Header, 0)
	for _, h := range headers.ToKafkaHeaders() {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: h.Key, Value: h.Value})
	}
	return kafkaHeaders
}

// EventMessage builds the Kafka message for a run event. Events are keyed by
// run id.
func EventMessage(topic string, event *RunEvent) (kafka.Message, error) {
	data, err := event.ToJSON()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize event: %w", err)
	}

	headers := MessageHeaders{
		EventType:   event.Type,
		RunID:       event.RunID,
		Year:        event.Year,
		TraceParent: traceParent(event.TraceID, event.SpanID),
	}

	return kafka.Message{
		Topic:   topic,
		Key:     []byte(event.RunID),
		Value:   data,
		Headers: toKafkaHeaders(headers),
		Time:    event.Timestamp,
	}, nil
}

// RecordMessages builds one Kafka message per accident, keyed by Num_Acc so
// that every version of an accident lands on the same partition.
func RecordMessages(topic, runID string, year int, accidents []models.ConsolidatedAccident, traceID, spanID string, now time.Time) ([]kafka.Message, error) {
	headers := toKafkaHeaders(MessageHeaders{
		RunID:       runID,
		Year:        year,
		TraceParent: traceParent(traceID, spanID),
	})

	messages := make([]kafka.Message, 0, len(accidents))
	for _, a := range accidents {
		msg := &RecordMessage{
			RunID:     runID,
			Year:      year,
			Timestamp: now,
			Accident:  a,
			TraceID:   traceID,
			SpanID:    spanID,
		}
		data, err := msg.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize accident %s: %w", a.NumAcc, err)
		}
		messages = append(messages, kafka.Message{
			Topic:   topic,
			Key:     []byte(a.NumAcc),
			Value:   data,
			Headers: headers,
			Time:    now,
		})
	}
	return messages, nil
}

// PublishEvent publishes a run event to the event topic
func (p *Producer) PublishEvent(ctx context.Context, event *RunEvent) error {
	msg, err := EventMessage(p.config.EventTopic, event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  p.config.EventTopic,
		"run_id": event.RunID,
		"type":   event.Type,
	}).Debug("Published run event")
	return nil
}

// PublishRecords publishes the accidents to the record topic in batches of
// BatchSize messages.
func (p *Producer) PublishRecords(ctx context.Context, runID string, year int, accidents []models.ConsolidatedAccident, traceID, spanID string) error {
	if len(accidents) == 0 {
		return nil
	}

	messages, err := RecordMessages(p.config.RecordTopic, runID, year, accidents, traceID, spanID, time.Now().UTC())
	if err != nil {
		return err
	}

	batchSize := p.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(messages)
	}
	for start := 0; start < len(messages); start += batchSize {
		end := min(start+batchSize, len(messages))
		if err := p.writer.WriteMessages(ctx, messages[start:end]...); err != nil {
			return fmt.Errorf("failed to publish batch: %w", err)
		}
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  p.config.RecordTopic,
		"run_id": runID,
		"count":  len(messages),
	}).Infof("Published %d records", len(messages))
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}
