package protocol

import (
	"strings"
	"testing"
	"time"
)

func TestDecodePositionEvent(t *testing.T) {
	payload := `{
		"mmsi": "235012345",
		"latitude": 51.90,
		"longitude": 1.30,
		"speedKnots": 15.0,
		"course": 42.5,
		"timestampUtc": "2026-08-30T10:15:00Z",
		"vesselName": "EVER GIVEN"
	}`

	event, err := DecodePositionEvent([]byte(payload))
	if err != nil {
		t.Fatalf("DecodePositionEvent failed: %v", err)
	}

	if event.Mmsi != "235012345" {
		t.Errorf("Expected mmsi 235012345, got %s", event.Mmsi)
	}
	if event.SpeedKnots != 15.0 {
		t.Errorf("Expected speed 15.0, got %f", event.SpeedKnots)
	}
	if event.VesselName != "EVER GIVEN" {
		t.Errorf("Expected vessel name EVER GIVEN, got %s", event.VesselName)
	}
}

func TestDecodePositionEventMalformed(t *testing.T) {
	if _, err := DecodePositionEvent([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}

	if _, err := DecodePositionEvent([]byte(`{"latitude": 51.9}`)); err == nil {
		t.Error("Expected error for event without mmsi")
	}
}

func TestEncodePredictionFieldNames(t *testing.T) {
	prediction := &EtaPrediction{
		Mmsi:                   "235012345",
		PortCode:               "FXT",
		EstimatedArrivalUtc:    time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC),
		DelayRisk:              DelayRiskMedium,
		DistanceNauticalMiles:  3.1,
		AverageSpeedKnots:      13.65,
		TidalConstraint:        true,
		PredictionTimestampUtc: time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC),
	}

	data, err := EncodePrediction(prediction)
	if err != nil {
		t.Fatalf("EncodePrediction failed: %v", err)
	}

	encoded := string(data)
	for _, field := range []string{
		`"mmsi"`, `"portCode"`, `"estimatedArrivalUtc"`, `"delayRisk":1`,
		`"distanceNauticalMiles"`, `"averageSpeedKnots"`, `"weatherImpact"`,
		`"tidalConstraint":true`, `"predictionTimestampUtc"`,
	} {
		if !strings.Contains(encoded, field) {
			t.Errorf("Encoded prediction missing %s: %s", field, encoded)
		}
	}
}

func TestWithDelayRiskDoesNotMutate(t *testing.T) {
	original := EtaPrediction{Mmsi: "1", DelayRisk: DelayRiskLow}
	updated := original.WithDelayRisk(DelayRiskHigh)

	if original.DelayRisk != DelayRiskLow {
		t.Error("WithDelayRisk mutated the original prediction")
	}
	if updated.DelayRisk != DelayRiskHigh {
		t.Errorf("Expected High, got %s", updated.DelayRisk)
	}
}

func TestDelayRiskString(t *testing.T) {
	if DelayRiskLow.String() != "Low" || DelayRiskMedium.String() != "Medium" || DelayRiskHigh.String() != "High" {
		t.Error("DelayRisk string labels incorrect")
	}
}
