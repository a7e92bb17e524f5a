package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

// Subscriber-group events carried by every update
const (
	EventEtaUpdate       = "EtaUpdate"
	EventVesselEtaUpdate = "VesselEtaUpdate"
	EventPortEtaUpdate   = "PortEtaUpdate"

	// GlobalChannel receives every new prediction
	GlobalChannel = "eta-updates"
)

// VesselChannel names the per-vessel subscriber group
func VesselChannel(mmsi string) string {
	return fmt.Sprintf("vessel-%s", mmsi)
}

// PortChannel names the per-port subscriber group
func PortChannel(portCode string) string {
	return fmt.Sprintf("port-%s", portCode)
}

// Notification is the envelope delivered to subscriber groups. The id lets
// downstream consumers de-duplicate re-deliveries.
type Notification struct {
	ID         string                 `json:"id"`
	Event      string                 `json:"event"`
	Prediction protocol.EtaPrediction `json:"prediction"`
}

// EncodeNotification encodes a Notification to JSON
func EncodeNotification(n *Notification) ([]byte, error) {
	return json.Marshal(n)
}

// DecodeNotification decodes JSON to a Notification
func DecodeNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Transport delivers an encoded notification to one named subscriber group
type Transport interface {
	Send(ctx context.Context, channel string, payload []byte) error
}

// Dispatcher fans each new prediction out to three subscriber groups: the
// global channel, the vessel's channel and the destination port's channel.
// Dispatch is fire-and-forget through a bounded queue; when the queue is full
// the update is dropped rather than stalling the caller, and a delivery
// failure to one group never blocks the others.
type Dispatcher struct {
	transport   Transport
	sendTimeout time.Duration

	queue  chan protocol.EtaPrediction
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int64
}

// NewDispatcher creates a dispatcher with the given queue capacity
func NewDispatcher(transport Transport, queueSize int) *Dispatcher {
	return &Dispatcher{
		transport:   transport,
		sendTimeout: 5 * time.Second,
		queue:       make(chan protocol.EtaPrediction, queueSize),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the delivery worker
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop drains in-flight deliveries and stops the worker
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// Publish enqueues a prediction for delivery to all subscriber groups. It
// never blocks: when the queue is full the update is dropped with a log line.
func (d *Dispatcher) Publish(prediction protocol.EtaPrediction) {
	select {
	case d.queue <- prediction:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		log.Printf("Broadcast queue full, dropping update for vessel %s", prediction.Mmsi)
	}
}

// Dropped returns how many updates were discarded due to backpressure
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case prediction := <-d.queue:
			d.deliver(prediction)
		case <-d.stopCh:
			// Drain whatever is already queued before exiting
			for {
				select {
				case prediction := <-d.queue:
					d.deliver(prediction)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(prediction protocol.EtaPrediction) {
	groups := []struct {
		channel string
		event   string
	}{
		{GlobalChannel, EventEtaUpdate},
		{VesselChannel(prediction.Mmsi), EventVesselEtaUpdate},
		{PortChannel(prediction.PortCode), EventPortEtaUpdate},
	}

	for _, group := range groups {
		payload, err := EncodeNotification(&Notification{
			ID:         uuid.New().String(),
			Event:      group.event,
			Prediction: prediction,
		})
		if err != nil {
			log.Printf("Failed to encode %s notification for vessel %s: %v", group.event, prediction.Mmsi, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := d.transport.Send(ctx, group.channel, payload); err != nil {
			log.Printf("Failed to deliver %s to %s for vessel %s: %v", group.event, group.channel, prediction.Mmsi, err)
		}
		cancel()
	}
}
