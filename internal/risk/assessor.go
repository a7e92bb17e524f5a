package risk

import (
	"math"
	"sync"
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/weather"
)

const (
	weatherWeight  = 0.3
	driftWeight    = 0.4
	distanceWeight = 0.2
	tidalWeight    = 0.1

	// Drift analysis looks at predictions within the trailing hour; recorded
	// history is retained for 24 hours.
	driftWindow      = time.Hour
	historyRetention = 24 * time.Hour
)

// Factor is one weighted contribution to the overall delay risk
type Factor struct {
	Level       protocol.DelayRisk
	Weight      float64
	Description string
}

// Assessor scores delay risk from weather severity, ETA drift, distance and
// tidal tightness, keeping a bounded per-vessel prediction history for the
// drift analysis.
type Assessor struct {
	mu      sync.Mutex
	history map[string][]protocol.EtaPrediction
	now     func() time.Time
}

// NewAssessor creates a risk assessor
func NewAssessor() *Assessor {
	return &Assessor{
		history: make(map[string][]protocol.EtaPrediction),
		now:     time.Now,
	}
}

// Assess scores the prediction and records it into the vessel's history. The
// recording happens after scoring so the drift factor never sees the
// prediction being assessed.
func (a *Assessor) Assess(prediction protocol.EtaPrediction, snapshot *weather.Snapshot) protocol.DelayRisk {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	factors := []Factor{
		assessWeather(snapshot),
		a.assessDrift(prediction, now),
		assessDistance(prediction),
		assessTidal(prediction, now),
	}

	overall := overallRisk(factors)

	a.record(prediction, now)

	return overall
}

// Factors returns the individual factor scores for a prediction without
// recording it. Useful for inspecting why a vessel scored the way it did.
func (a *Assessor) Factors(prediction protocol.EtaPrediction, snapshot *weather.Snapshot) []Factor {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	return []Factor{
		assessWeather(snapshot),
		a.assessDrift(prediction, now),
		assessDistance(prediction),
		assessTidal(prediction, now),
	}
}

// HistoryLen returns the number of retained predictions for a vessel
func (a *Assessor) HistoryLen(mmsi string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history[mmsi])
}

func assessWeather(snapshot *weather.Snapshot) Factor {
	switch severity := snapshot.SeverityFactor; {
	case severity < 0.3:
		return Factor{protocol.DelayRiskLow, weatherWeight, "Favorable weather conditions"}
	case severity < 0.6:
		return Factor{protocol.DelayRiskMedium, weatherWeight, "Moderate weather conditions"}
	default:
		return Factor{protocol.DelayRiskHigh, weatherWeight, "Severe weather conditions"}
	}
}

func (a *Assessor) assessDrift(prediction protocol.EtaPrediction, now time.Time) Factor {
	history := a.history[prediction.Mmsi]
	if len(history) < 2 {
		return Factor{protocol.DelayRiskLow, driftWeight, "Insufficient historical data"}
	}

	// History is appended in prediction-timestamp order, so the first and last
	// entries inside the trailing hour are the earliest and latest.
	cutoff := now.Add(-driftWindow)
	var recent []protocol.EtaPrediction
	for _, p := range history {
		if p.PredictionTimestampUtc.After(cutoff) {
			recent = append(recent, p)
		}
	}

	if len(recent) < 2 {
		return Factor{protocol.DelayRiskLow, driftWeight, "Stable ETA"}
	}

	firstEta := recent[0].EstimatedArrivalUtc
	lastEta := recent[len(recent)-1].EstimatedArrivalUtc
	driftMinutes := math.Abs(lastEta.Sub(firstEta).Minutes())

	switch {
	case driftMinutes < 15:
		return Factor{protocol.DelayRiskLow, driftWeight, "Minimal ETA drift"}
	case driftMinutes < 30:
		return Factor{protocol.DelayRiskMedium, driftWeight, "Moderate ETA drift"}
	default:
		return Factor{protocol.DelayRiskHigh, driftWeight, "Significant ETA drift"}
	}
}

func assessDistance(prediction protocol.EtaPrediction) Factor {
	switch distance := prediction.DistanceNauticalMiles; {
	case distance < 50:
		return Factor{protocol.DelayRiskLow, distanceWeight, "Close to port"}
	case distance < 200:
		return Factor{protocol.DelayRiskMedium, distanceWeight, "Moderate distance"}
	default:
		return Factor{protocol.DelayRiskHigh, distanceWeight, "Long distance to port"}
	}
}

func assessTidal(prediction protocol.EtaPrediction, now time.Time) Factor {
	if !prediction.TidalConstraint {
		return Factor{protocol.DelayRiskLow, tidalWeight, "No tidal constraints"}
	}

	switch hoursToArrival := prediction.EstimatedArrivalUtc.Sub(now).Hours(); {
	case hoursToArrival < 2:
		return Factor{protocol.DelayRiskHigh, tidalWeight, "Tight tidal window"}
	case hoursToArrival < 6:
		return Factor{protocol.DelayRiskMedium, tidalWeight, "Moderate tidal constraint"}
	default:
		return Factor{protocol.DelayRiskLow, tidalWeight, "Flexible tidal window"}
	}
}

func overallRisk(factors []Factor) protocol.DelayRisk {
	weightedScore := 0.0
	totalWeight := 0.0
	for _, f := range factors {
		weightedScore += float64(f.Level) * f.Weight
		totalWeight += f.Weight
	}

	switch average := weightedScore / totalWeight; {
	case average < 0.7:
		return protocol.DelayRiskLow
	case average < 1.3:
		return protocol.DelayRiskMedium
	default:
		return protocol.DelayRiskHigh
	}
}

func (a *Assessor) record(prediction protocol.EtaPrediction, now time.Time) {
	history := append(a.history[prediction.Mmsi], prediction)

	cutoff := now.Add(-historyRetention)
	kept := history[:0]
	for _, p := range history {
		if p.PredictionTimestampUtc.After(cutoff) {
			kept = append(kept, p)
		}
	}

	a.history[prediction.Mmsi] = kept
}
