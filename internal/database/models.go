package database

import (
	"time"
)

// PredictionRecord is one archived ETA prediction row
type PredictionRecord struct {
	ID                     int64
	Mmsi                   string
	PortCode               string
	EstimatedArrivalUtc    time.Time
	DelayRisk              int
	DistanceNm             float64
	AverageSpeedKnots      float64
	Conditions             string
	WindSpeedKnots         float64
	WaveHeightM            float64
	TidalConstraint        bool
	PredictionTimestampUtc time.Time
	ReceivedAt             time.Time
}
