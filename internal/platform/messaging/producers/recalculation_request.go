package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/config"
	"github.com/segmentio/kafka-go"
)

// RecalculationReqProducer publishes trial balance recalculation requests for the worker
type RecalculationReqProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewRecalculationReqProducer dials the brokers and ensures the recalculation topic exists
func NewRecalculationReqProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RecalculationReqProducer, error) {
	if cfg.RecalculationTopic == "" {
		return nil, fmt.Errorf("kafka recalculation topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for recalculation producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(ctx, conn, cfg.RecalculationTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure recalculation topic %s exists: %w", cfg.RecalculationTopic, err)
	}

	// Keyed by period id, so requests for one period land on one partition in order
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.RecalculationTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &RecalculationReqProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.RecalculationTopic,
	}, nil
}

func (p *RecalculationReqProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal recalculation request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish recalculation request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish recalculation request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published recalculation request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *RecalculationReqProducer) Close() error {
	p.logger.Info("Closing recalculation request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close recalculation kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
