package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const topicReadAttempts = 5

var topicReadBackoff = 2 * time.Second

// ensureTopic provisions a closing topic unless the broker already reports
// partitions for it. A fresh broker may fail partition reads for a while, so
// reads are retried before falling through to creation.
func ensureTopic(ctx context.Context, admin topicAdmin, topic string, partitions, replicas int, log *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		existing, err := admin.ReadPartitions(topic)
		if err == nil && len(existing) > 0 {
			log.Info("Kafka topic already exists", "topic", topic, "partitions", len(existing))
			return nil
		}
		if err == nil || errors.Is(err, kafka.UnknownTopicOrPartition) {
			lastErr = nil
			break
		}
		lastErr = err
		log.Warn("Failed to read topic partitions, retrying", "topic", topic, "attempt", attempt, "error", err)
		if attempt == topicReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	cfg := kafka.TopicConfig{Topic: topic, NumPartitions: partitions, ReplicationFactor: replicas}
	if cfg.NumPartitions <= 0 {
		cfg.NumPartitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}

	log.Info("Creating Kafka topic",
		"topic", topic,
		"partitions", cfg.NumPartitions,
		"replication_factor", cfg.ReplicationFactor,
		"last_read_error", lastErr,
	)
	if err := admin.CreateTopics(cfg); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
