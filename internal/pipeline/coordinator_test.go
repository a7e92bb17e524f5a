package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

type fakeConsumer struct {
	mu        sync.Mutex
	messages  []kafka.Message
	errors    []error
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeConsumer) Consume(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.errors) > 0 {
		err := f.errors[0]
		f.errors = f.errors[1:]
		return kafka.Message{}, err
	}
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		return msg, nil
	}

	// Exhausted: stop the run loop
	f.cancel()
	return kafka.Message{}, context.Canceled
}

func (f *fakeConsumer) Commit(ctx context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg.Offset)
	return nil
}

type fakeProducer struct {
	mu        sync.Mutex
	published []string
	failures  int
}

func (f *fakeProducer) Publish(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("broker unavailable")
	}
	f.published = append(f.published, key)
	return nil
}

type fakeProcessor struct {
	drop bool
}

func (f *fakeProcessor) Process(ctx context.Context, event *protocol.VesselPositionEvent) *protocol.EtaPrediction {
	if f.drop {
		return nil
	}
	return &protocol.EtaPrediction{
		Mmsi:                   event.Mmsi,
		PortCode:               "FXT",
		PredictionTimestampUtc: time.Now().UTC(),
	}
}

type fakeCache struct {
	mu       sync.Mutex
	upserted []string
}

func (f *fakeCache) Upsert(prediction protocol.EtaPrediction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, prediction.Mmsi)
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	published []string
}

func (f *fakeBroadcaster) Publish(prediction protocol.EtaPrediction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, prediction.Mmsi)
}

func positionMessage(t *testing.T, mmsi string, offset int64) kafka.Message {
	t.Helper()
	payload, err := protocol.EncodePositionEvent(&protocol.VesselPositionEvent{
		Mmsi:       mmsi,
		Latitude:   51.90,
		Longitude:  1.30,
		SpeedKnots: 15,
	})
	if err != nil {
		t.Fatalf("EncodePositionEvent failed: %v", err)
	}
	return kafka.Message{Key: []byte(mmsi), Value: payload, Offset: offset}
}

func runPipeline(t *testing.T, consumer *fakeConsumer, producer *fakeProducer, processor Processor) (*fakeCache, *fakeBroadcaster) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	consumer.cancel = cancel

	cache := &fakeCache{}
	broadcaster := &fakeBroadcaster{}
	c := NewCoordinator(consumer, producer, processor, cache, broadcaster)

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("Pipeline did not stop")
	}

	return cache, broadcaster
}

func TestPipelineProcessesAndCommits(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafka.Message{
		positionMessage(t, "235000001", 7),
		positionMessage(t, "235000002", 8),
	}}
	producer := &fakeProducer{}

	cache, broadcaster := runPipeline(t, consumer, producer, &fakeProcessor{})

	if len(producer.published) != 2 {
		t.Errorf("Expected 2 published predictions, got %d", len(producer.published))
	}
	if len(cache.upserted) != 2 {
		t.Errorf("Expected 2 cache upserts, got %d", len(cache.upserted))
	}
	if len(broadcaster.published) != 2 {
		t.Errorf("Expected 2 broadcasts, got %d", len(broadcaster.published))
	}
	if len(consumer.committed) != 2 || consumer.committed[0] != 7 || consumer.committed[1] != 8 {
		t.Errorf("Expected offsets [7 8] committed, got %v", consumer.committed)
	}
}

func TestPipelineSkipsMalformedEvents(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafka.Message{
		{Value: []byte("{not json"), Offset: 1},
		positionMessage(t, "235000003", 2),
	}}
	producer := &fakeProducer{}

	cache, _ := runPipeline(t, consumer, producer, &fakeProcessor{})

	if len(cache.upserted) != 1 {
		t.Errorf("Expected 1 upsert after skipping malformed event, got %d", len(cache.upserted))
	}
	// Malformed events are committed so they are not re-delivered
	if len(consumer.committed) != 2 {
		t.Errorf("Expected both offsets committed, got %v", consumer.committed)
	}
}

func TestPipelineDropsUnresolvableEvents(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafka.Message{
		positionMessage(t, "235000004", 3),
	}}
	producer := &fakeProducer{}

	cache, broadcaster := runPipeline(t, consumer, producer, &fakeProcessor{drop: true})

	if len(cache.upserted) != 0 || len(broadcaster.published) != 0 {
		t.Error("Expected dropped event to reach neither cache nor broadcaster")
	}
	if len(consumer.committed) != 1 {
		t.Errorf("Expected dropped event committed, got %v", consumer.committed)
	}
}

func TestPipelineLeavesOffsetUncommittedOnPublishFailure(t *testing.T) {
	consumer := &fakeConsumer{messages: []kafka.Message{
		positionMessage(t, "235000005", 4),
	}}
	producer := &fakeProducer{failures: 1}

	cache, _ := runPipeline(t, consumer, producer, &fakeProcessor{})

	if len(consumer.committed) != 0 {
		t.Errorf("Expected no commit after publish failure, got %v", consumer.committed)
	}
	// The cache only sees the prediction once it has been published downstream
	if len(cache.upserted) != 0 {
		t.Errorf("Expected no upsert after publish failure, got %d", len(cache.upserted))
	}
}

func TestPipelineStopsOnCancel(t *testing.T) {
	consumer := &fakeConsumer{}
	producer := &fakeProducer{}

	// No messages: the consumer cancels immediately and Run must return
	runPipeline(t, consumer, producer, &fakeProcessor{})
}
