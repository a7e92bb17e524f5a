package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// DelayRisk classifies how likely a vessel is to miss its estimated arrival.
// Serialized as its numeric level so downstream consumers can compare directly.
type DelayRisk int

const (
	DelayRiskLow DelayRisk = iota
	DelayRiskMedium
	DelayRiskHigh
)

// String returns the human-readable risk level
func (r DelayRisk) String() string {
	switch r {
	case DelayRiskLow:
		return "Low"
	case DelayRiskMedium:
		return "Medium"
	case DelayRiskHigh:
		return "High"
	default:
		return fmt.Sprintf("DelayRisk(%d)", int(r))
	}
}

// VesselPositionEvent is one observed vessel position as delivered on the
// position topic, keyed by MMSI
type VesselPositionEvent struct {
	Mmsi         string    `json:"mmsi"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	SpeedKnots   float64   `json:"speedKnots"`
	Course       float64   `json:"course"`
	TimestampUtc time.Time `json:"timestampUtc"`
	VesselName   string    `json:"vesselName,omitempty"`
	CallSign     string    `json:"callSign,omitempty"`
}

// WeatherImpact summarizes how marine conditions affected a prediction
type WeatherImpact struct {
	SpeedReductionFactor float64 `json:"speedReductionFactor"`
	Conditions           string  `json:"conditions"`
	WindSpeedKnots       float64 `json:"windSpeedKnots"`
	WaveHeightMeters     float64 `json:"waveHeightMeters"`
}

// EtaPrediction is one scored arrival prediction for a vessel. Predictions are
// immutable values; a later prediction for the same vessel supersedes an
// earlier one rather than mutating it.
type EtaPrediction struct {
	Mmsi                   string        `json:"mmsi"`
	PortCode               string        `json:"portCode"`
	EstimatedArrivalUtc    time.Time     `json:"estimatedArrivalUtc"`
	DelayRisk              DelayRisk     `json:"delayRisk"`
	DistanceNauticalMiles  float64       `json:"distanceNauticalMiles"`
	AverageSpeedKnots      float64       `json:"averageSpeedKnots"`
	WeatherImpact          WeatherImpact `json:"weatherImpact"`
	TidalConstraint        bool          `json:"tidalConstraint"`
	PredictionTimestampUtc time.Time     `json:"predictionTimestampUtc"`
}

// WithDelayRisk returns a copy of the prediction with the assessed risk level.
// The original value is left untouched.
func (p EtaPrediction) WithDelayRisk(risk DelayRisk) EtaPrediction {
	p.DelayRisk = risk
	return p
}

// EncodePositionEvent encodes a VesselPositionEvent to JSON
func EncodePositionEvent(event *VesselPositionEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodePositionEvent decodes JSON to a VesselPositionEvent
func DecodePositionEvent(data []byte) (*VesselPositionEvent, error) {
	var event VesselPositionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Mmsi == "" {
		return nil, fmt.Errorf("position event missing mmsi")
	}
	return &event, nil
}

// EncodePrediction encodes an EtaPrediction to JSON
func EncodePrediction(prediction *EtaPrediction) ([]byte, error) {
	return json.Marshal(prediction)
}

// DecodePrediction decodes JSON to an EtaPrediction
func DecodePrediction(data []byte) (*EtaPrediction, error) {
	var prediction EtaPrediction
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}
