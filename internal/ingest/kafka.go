package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"

	"supplywatch/internal/config"
)

// KafkaSource consumes the configured supply-chain topics as one consumer
// group member. Offsets commit through the group, giving at-least-once
// delivery; idempotence downstream absorbs redelivery.
type KafkaSource struct {
	reader    *kafka.Reader
	batchSize int
	logger    *slog.Logger
}

func NewKafkaSource(cfg config.IngestConfig, logger *slog.Logger) *KafkaSource {
	topics := make([]string, 0, len(cfg.Topics))
	for topic := range cfg.Topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	if logger != nil {
		logger.Info("kafka source enabled",
			"brokers", cfg.Kafka.Brokers,
			"topics", topics,
			"group_id", cfg.Kafka.GroupID,
		)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupTopics: topics,
		GroupID:     cfg.Kafka.GroupID,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		MaxWait:     cfg.PollTimeout,
	})
	return &KafkaSource{
		reader:    reader,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

// Poll assembles a batch by reading until the timeout elapses or the batch
// cap is reached. A deadline hit is not an error: the batch so far is the
// cycle's work.
func (s *KafkaSource) Poll(ctx context.Context, timeout time.Duration) ([]Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	batch := make([]Message, 0, s.batchSize)
	for len(batch) < s.batchSize {
		m, err := s.reader.ReadMessage(pollCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return batch, nil
			}
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			return batch, err
		}
		batch = append(batch, Message{Topic: m.Topic, Value: m.Value})
	}
	return batch, nil
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
