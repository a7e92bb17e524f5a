package broadcast

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     map[string][]*Notification
	failures map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sent:     make(map[string][]*Notification),
		failures: make(map[string]error),
	}
}

func (f *fakeTransport) Send(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[channel]; ok {
		return err
	}

	n, err := DecodeNotification(payload)
	if err != nil {
		return err
	}
	f.sent[channel] = append(f.sent[channel], n)
	return nil
}

func (f *fakeTransport) notifications(channel string) []*Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Notification(nil), f.sent[channel]...)
}

func testPrediction() protocol.EtaPrediction {
	return protocol.EtaPrediction{
		Mmsi:                   "235000001",
		PortCode:               "FXT",
		EstimatedArrivalUtc:    time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
		PredictionTimestampUtc: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishReachesAllThreeGroups(t *testing.T) {
	transport := newFakeTransport()
	d := NewDispatcher(transport, 16)
	d.Start()

	d.Publish(testPrediction())
	d.Stop()

	checks := []struct {
		channel string
		event   string
	}{
		{GlobalChannel, EventEtaUpdate},
		{"vessel-235000001", EventVesselEtaUpdate},
		{"port-FXT", EventPortEtaUpdate},
	}

	for _, c := range checks {
		got := transport.notifications(c.channel)
		if len(got) != 1 {
			t.Fatalf("Expected 1 notification on %s, got %d", c.channel, len(got))
		}
		if got[0].Event != c.event {
			t.Errorf("Expected event %s on %s, got %s", c.event, c.channel, got[0].Event)
		}
		if got[0].Prediction.Mmsi != "235000001" {
			t.Errorf("Notification on %s carried wrong prediction: %+v", c.channel, got[0].Prediction)
		}
		if got[0].ID == "" {
			t.Errorf("Notification on %s missing id", c.channel)
		}
	}
}

func TestOneGroupFailureDoesNotBlockOthers(t *testing.T) {
	transport := newFakeTransport()
	transport.failures[GlobalChannel] = fmt.Errorf("subscriber group unavailable")

	d := NewDispatcher(transport, 16)
	d.Start()

	d.Publish(testPrediction())
	d.Stop()

	if got := transport.notifications("vessel-235000001"); len(got) != 1 {
		t.Errorf("Expected vessel group delivery despite global failure, got %d", len(got))
	}
	if got := transport.notifications("port-FXT"); len(got) != 1 {
		t.Errorf("Expected port group delivery despite global failure, got %d", len(got))
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	transport := newFakeTransport()
	// Worker never started: the queue fills and further publishes drop
	d := NewDispatcher(transport, 2)

	for i := 0; i < 5; i++ {
		d.Publish(testPrediction())
	}

	if d.Dropped() != 3 {
		t.Errorf("Expected 3 dropped updates, got %d", d.Dropped())
	}
}

func TestStopDrainsQueue(t *testing.T) {
	transport := newFakeTransport()
	d := NewDispatcher(transport, 16)

	for i := 0; i < 4; i++ {
		d.Publish(testPrediction())
	}

	d.Start()
	d.Stop()

	if got := transport.notifications(GlobalChannel); len(got) != 4 {
		t.Errorf("Expected 4 drained deliveries, got %d", len(got))
	}
}
