package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/geo"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/ports"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/risk"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/tide"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/weather"
)

const (
	// Weather degrades reported speed by up to 30%
	maxSpeedReduction = 0.3
	// Effective speed is floored to keep distance/speed bounded
	minEffectiveSpeedKnots = 1.0
)

// Engine computes one scored ETA prediction per incoming position event,
// orchestrating distance, weather, tidal scheduling and risk assessment.
type Engine struct {
	catalog  *ports.Catalog
	weather  weather.Fetcher
	assessor *risk.Assessor
	now      func() time.Time
}

// New creates a prediction engine. The catalog must be non-empty; that is
// enforced at catalog construction, so a nil catalog here is a wiring bug.
func New(catalog *ports.Catalog, fetcher weather.Fetcher, assessor *risk.Assessor) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("port catalog is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("weather fetcher is required")
	}
	if assessor == nil {
		return nil, fmt.Errorf("risk assessor is required")
	}

	return &Engine{
		catalog:  catalog,
		weather:  fetcher,
		assessor: assessor,
		now:      time.Now,
	}, nil
}

// Process computes a scored prediction for a position event. It returns nil
// only when no port can be resolved for the position; such events are dropped
// with a warning rather than retried. Reprocessing the same event after a
// broker re-delivery produces an equivalent prediction.
func (e *Engine) Process(ctx context.Context, event *protocol.VesselPositionEvent) *protocol.EtaPrediction {
	port := e.catalog.Nearest(event.Latitude, event.Longitude)
	if port == nil {
		log.Printf("No port found for vessel %s at %.4f, %.4f", event.Mmsi, event.Latitude, event.Longitude)
		return nil
	}

	distanceNm := geo.DistanceNauticalMiles(event.Latitude, event.Longitude, port.Latitude, port.Longitude)

	snapshot := e.weather.Fetch(ctx, event.Latitude, event.Longitude)

	effectiveSpeed := effectiveSpeedKnots(event.SpeedKnots, snapshot.SeverityFactor)

	now := e.now().UTC()
	baseEtaHours := distanceNm / effectiveSpeed
	baseEta := now.Add(time.Duration(baseEtaHours * float64(time.Hour)))

	adjustedEta := tide.ApplyConstraint(baseEta, port)

	prediction := protocol.EtaPrediction{
		Mmsi:                  event.Mmsi,
		PortCode:              port.PortCode,
		EstimatedArrivalUtc:   adjustedEta,
		DelayRisk:             protocol.DelayRiskLow, // replaced by assessment below
		DistanceNauticalMiles: distanceNm,
		AverageSpeedKnots:     effectiveSpeed,
		WeatherImpact: protocol.WeatherImpact{
			SpeedReductionFactor: 1.0 - snapshot.SeverityFactor*maxSpeedReduction,
			Conditions:           snapshot.Conditions,
			WindSpeedKnots:       snapshot.WindSpeedKnots,
			WaveHeightMeters:     snapshot.WaveHeightMeters,
		},
		TidalConstraint:        tide.IsConstrained(baseEta, adjustedEta),
		PredictionTimestampUtc: now,
	}

	scored := prediction.WithDelayRisk(e.assessor.Assess(prediction, snapshot))
	return &scored
}

func effectiveSpeedKnots(reportedKnots, severity float64) float64 {
	speed := reportedKnots * (1.0 - severity*maxSpeedReduction)
	if speed < minEffectiveSpeedKnots {
		return minEffectiveSpeedKnots
	}
	return speed
}
