package queue

import (
	"context"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// Publish retries are bounded; beyond broker-level idempotence the
	// pipeline never duplicate-publishes silently.
	maxPublishAttempts = 3
	publishRetryDelay  = time.Second
)

// Producer wraps a Kafka producer keyed by vessel id
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer for the topic
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Partition by key (vessel id)
			RequiredAcks: kafka.RequireAll,
			Async:        false, // Synchronous for reliability
		},
	}
}

// Publish sends a message to Kafka, retrying up to maxPublishAttempts before
// giving up
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	var lastErr error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxPublishAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(publishRetryDelay):
			}
		}
	}

	return fmt.Errorf("failed to write message after %d attempts: %w", maxPublishAttempts, lastErr)
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer wraps a Kafka consumer with manual offset commits, so an offset is
// only committed after its handler has completed (at-least-once delivery).
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a new Kafka consumer in the given group
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,    // 1 byte
			MaxBytes:       10e6, // 10MB
			CommitInterval: 0,    // Manual commit
			StartOffset:    kafka.FirstOffset,
		}),
	}
}

// Consume reads the next message from Kafka without committing it
func (c *Consumer) Consume(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// Commit commits the message offset
func (c *Consumer) Commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Stats returns consumer statistics
func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}

// PartitionForVessel returns the partition a vessel id hashes to. Positions
// for one vessel always land on the same partition, which is what preserves
// per-vessel ordering.
func PartitionForVessel(mmsi string, numPartitions int) int {
	hash := crc32.ChecksumIEEE([]byte(mmsi))
	return int(hash % uint32(numPartitions))
}

// CreateTopic creates a Kafka topic with the specified number of partitions
func CreateTopic(brokers []string, topic string, numPartitions int, replicationFactor int) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     numPartitions,
			ReplicationFactor: replicationFactor,
		},
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	return nil
}
