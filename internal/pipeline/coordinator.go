package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

const (
	initialReconnectDelay = 5 * time.Second
	maxReconnectDelay     = 60 * time.Second
)

// Consumer is the position-event source
type Consumer interface {
	Consume(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// Producer publishes predictions for downstream systems
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Processor turns a position event into a scored prediction
type Processor interface {
	Process(ctx context.Context, event *protocol.VesselPositionEvent) *protocol.EtaPrediction
}

// Cache receives every new prediction for the read path
type Cache interface {
	Upsert(prediction protocol.EtaPrediction)
}

// Broadcaster fans predictions out to subscriber groups
type Broadcaster interface {
	Publish(prediction protocol.EtaPrediction)
}

// Coordinator wires the position-event consumer to the prediction engine and
// the engine's output to the downstream producer, the prediction cache and
// the broadcast dispatcher. A message's offset is committed only after its
// handler completes, so processing is at-least-once; every stage tolerates
// re-delivery.
type Coordinator struct {
	consumer    Consumer
	producer    Producer
	engine      Processor
	cache       Cache
	broadcaster Broadcaster
	outputTopic string
}

// NewCoordinator creates a pipeline coordinator
func NewCoordinator(consumer Consumer, producer Producer, engine Processor, cache Cache, broadcaster Broadcaster) *Coordinator {
	return &Coordinator{
		consumer:    consumer,
		producer:    producer,
		engine:      engine,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// Run consumes position events until the context is cancelled. Broker
// failures are retried with backoff; the loop survives indefinitely across
// reconnects. On cancellation it exits after the in-flight message, never
// mid-message.
func (c *Coordinator) Run(ctx context.Context) error {
	reconnectDelay := initialReconnectDelay

	for {
		msg, err := c.consumer.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}

			log.Printf("Failed to consume position event, retrying in %s: %v", reconnectDelay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
			if reconnectDelay *= 2; reconnectDelay > maxReconnectDelay {
				reconnectDelay = maxReconnectDelay
			}
			continue
		}
		reconnectDelay = initialReconnectDelay

		if err := c.handle(ctx, msg); err != nil {
			// Leave the offset uncommitted so the broker re-delivers;
			// handlers are idempotent under re-processing.
			log.Printf("Failed to handle position event at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := c.consumer.Commit(ctx, msg); err != nil {
			log.Printf("Failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, msg kafka.Message) error {
	event, err := protocol.DecodePositionEvent(msg.Value)
	if err != nil {
		// Malformed events are skipped, not retried: re-delivery would fail
		// the same way forever.
		log.Printf("Skipping malformed position event at offset %d: %v", msg.Offset, err)
		return nil
	}

	prediction := c.engine.Process(ctx, event)
	if prediction == nil {
		// Unresolvable port; dropped with the engine's warning
		return nil
	}

	payload, err := protocol.EncodePrediction(prediction)
	if err != nil {
		log.Printf("Failed to encode prediction for vessel %s: %v", prediction.Mmsi, err)
		return nil
	}

	if err := c.producer.Publish(ctx, prediction.Mmsi, payload); err != nil {
		return err
	}

	c.cache.Upsert(*prediction)
	c.broadcaster.Publish(*prediction)

	return nil
}
