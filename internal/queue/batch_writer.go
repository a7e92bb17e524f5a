package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/database"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

// BatchWriter consumes published predictions from Kafka and batch-writes them
// to the archive database. Offsets are committed per message only after the
// row is written, so a crash re-delivers rather than loses predictions.
type BatchWriter struct {
	consumer      *Consumer
	db            *database.DB
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(consumer *Consumer, db *database.DB, batchSize int, flushInterval time.Duration) *BatchWriter {
	return &BatchWriter{
		consumer:      consumer,
		db:            db,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming and writing to the database
func (bw *BatchWriter) Start(ctx context.Context) error {
	bw.wg.Add(1)
	go bw.run(ctx)
	return nil
}

// Stop stops the batch writer gracefully, flushing the pending batch
func (bw *BatchWriter) Stop() {
	close(bw.stopCh)
	bw.wg.Wait()
}

func (bw *BatchWriter) run(ctx context.Context) {
	defer bw.wg.Done()

	var batch []kafka.Message
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	msgChan := make(chan kafka.Message, 10)
	go func() {
		for {
			msg, err := bw.consumer.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fmt.Printf("Consumer error: %v\n", err)
				continue
			}
			select {
			case msgChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-bw.stopCh:
			// Flush remaining batch before stopping
			if len(batch) > 0 {
				bw.flush(ctx, batch)
			}
			return

		case <-ticker.C:
			if len(batch) > 0 {
				bw.flush(ctx, batch)
				batch = nil
			}

		case msg := <-msgChan:
			batch = append(batch, msg)

			if len(batch) >= bw.batchSize {
				bw.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

func (bw *BatchWriter) flush(ctx context.Context, batch []kafka.Message) {
	successCount := 0
	for _, msg := range batch {
		if err := bw.archiveMessage(msg); err != nil {
			fmt.Printf("Failed to archive prediction: %v\n", err)
			continue
		}
		successCount++

		// Commit offset after successful write
		if err := bw.consumer.Commit(ctx, msg); err != nil {
			fmt.Printf("Failed to commit offset: %v\n", err)
		}
	}

	fmt.Printf("Archived batch of %d predictions\n", successCount)
}

func (bw *BatchWriter) archiveMessage(msg kafka.Message) error {
	prediction, err := protocol.DecodePrediction(msg.Value)
	if err != nil {
		return fmt.Errorf("failed to decode prediction: %w", err)
	}

	record := &database.PredictionRecord{
		Mmsi:                   prediction.Mmsi,
		PortCode:               prediction.PortCode,
		EstimatedArrivalUtc:    prediction.EstimatedArrivalUtc,
		DelayRisk:              int(prediction.DelayRisk),
		DistanceNm:             prediction.DistanceNauticalMiles,
		AverageSpeedKnots:      prediction.AverageSpeedKnots,
		Conditions:             prediction.WeatherImpact.Conditions,
		WindSpeedKnots:         prediction.WeatherImpact.WindSpeedKnots,
		WaveHeightM:            prediction.WeatherImpact.WaveHeightMeters,
		TidalConstraint:        prediction.TidalConstraint,
		PredictionTimestampUtc: prediction.PredictionTimestampUtc,
		ReceivedAt:             time.Now().UTC(),
	}

	if err := bw.db.InsertPrediction(record); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}
