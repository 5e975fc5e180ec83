package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// RecalculationPublisher queues trial balance recalculation requests, keyed by period id
type RecalculationPublisher interface {
	Publish(ctx context.Context, periodKey string, request interface{}) error
	Close() error
}

// DeadLetterPublisher parks recalculation requests the worker gave up on
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, periodKey string, rawRequest []byte, reason string) error
	Close() error
}

// KafkaWriter is the part of kafka.Writer the producers write through
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the part of kafka.Conn used to provision closing topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}
