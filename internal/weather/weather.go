package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultBaseURL is the Open-Meteo marine forecast endpoint
const DefaultBaseURL = "https://marine-api.open-meteo.com/v1/marine"

// Snapshot holds point-in-time marine conditions at a position
type Snapshot struct {
	Latitude         float64
	Longitude        float64
	WindSpeedKnots   float64
	WindDirection    float64
	WaveHeightMeters float64
	VisibilityKm     float64
	Conditions       string
	TimestampUtc     time.Time
	// SeverityFactor is 0.0 to 1.0, where 1.0 is severe
	SeverityFactor float64
}

// Fetcher provides marine weather for a position. Implementations never
// surface lookup failures to callers; weather unavailability must not stall
// the prediction pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64) *Snapshot
}

// Service fetches marine weather from the Open-Meteo API, falling back to a
// fixed default snapshot on any failure.
type Service struct {
	client  *http.Client
	baseURL string
}

// NewService creates a weather service against the default Open-Meteo endpoint
func NewService(timeout time.Duration) *Service {
	return NewServiceWithURL(DefaultBaseURL, timeout)
}

// NewServiceWithURL creates a weather service against a custom endpoint
func NewServiceWithURL(baseURL string, timeout time.Duration) *Service {
	return &Service{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type openMeteoResponse struct {
	Current *openMeteoCurrent `json:"current"`
}

type openMeteoCurrent struct {
	WindSpeed10m     *float64 `json:"wind_speed_10m"`
	WindDirection10m *float64 `json:"wind_direction_10m"`
	WaveHeight       *float64 `json:"wave_height"`
}

// Fetch returns the current marine conditions at the given position. Any
// failure (network, bad status, malformed body, missing current block) yields
// the default snapshot instead of an error.
func (s *Service) Fetch(ctx context.Context, latitude, longitude float64) *Snapshot {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=wind_speed_10m,wind_direction_10m,wave_height&wind_speed_unit=kn",
		s.baseURL, latitude, longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("Failed to build weather request: %v", err)
		return DefaultSnapshot(latitude, longitude)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Failed to fetch weather for %.4f, %.4f: %v", latitude, longitude, err)
		return DefaultSnapshot(latitude, longitude)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Weather API returned status %d for %.4f, %.4f", resp.StatusCode, latitude, longitude)
		return DefaultSnapshot(latitude, longitude)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read weather response: %v", err)
		return DefaultSnapshot(latitude, longitude)
	}

	var parsed openMeteoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("Failed to decode weather response: %v", err)
		return DefaultSnapshot(latitude, longitude)
	}

	if parsed.Current == nil {
		log.Printf("No current weather block for %.4f, %.4f", latitude, longitude)
		return DefaultSnapshot(latitude, longitude)
	}

	windKnots := 0.0
	if parsed.Current.WindSpeed10m != nil {
		windKnots = *parsed.Current.WindSpeed10m
	}
	windDirection := 0.0
	if parsed.Current.WindDirection10m != nil {
		windDirection = *parsed.Current.WindDirection10m
	}
	waveHeight := 0.0
	if parsed.Current.WaveHeight != nil {
		waveHeight = *parsed.Current.WaveHeight
	}

	return &Snapshot{
		Latitude:         latitude,
		Longitude:        longitude,
		WindSpeedKnots:   windKnots,
		WindDirection:    windDirection,
		WaveHeightMeters: waveHeight,
		VisibilityKm:     10,
		Conditions:       Conditions(windKnots, waveHeight),
		TimestampUtc:     time.Now().UTC(),
		SeverityFactor:   SeverityFactor(windKnots, waveHeight),
	}
}

// DefaultSnapshot is the fixed fallback used whenever a lookup fails
func DefaultSnapshot(latitude, longitude float64) *Snapshot {
	return &Snapshot{
		Latitude:         latitude,
		Longitude:        longitude,
		WindSpeedKnots:   10,
		WindDirection:    180,
		WaveHeightMeters: 1.0,
		VisibilityKm:     10,
		Conditions:       "Moderate",
		TimestampUtc:     time.Now().UTC(),
		SeverityFactor:   0.3,
	}
}

// SeverityFactor normalizes wind and wave conditions into [0,1], taking
// whichever of the two is more severe. 40+ knot winds or 4+ meter waves count
// as fully severe.
func SeverityFactor(windSpeedKnots, waveHeightMeters float64) float64 {
	windFactor := windSpeedKnots / 40.0
	if windFactor > 1.0 {
		windFactor = 1.0
	}
	waveFactor := waveHeightMeters / 4.0
	if waveFactor > 1.0 {
		waveFactor = 1.0
	}

	if windFactor > waveFactor {
		return windFactor
	}
	return waveFactor
}

// Conditions classifies (wind, wave) pairs into a four-bucket label
func Conditions(windSpeedKnots, waveHeightMeters float64) string {
	switch {
	case windSpeedKnots < 10 && waveHeightMeters < 1:
		return "Calm"
	case windSpeedKnots < 20 && waveHeightMeters < 2:
		return "Moderate"
	case windSpeedKnots < 30 && waveHeightMeters < 3:
		return "Rough"
	default:
		return "Severe"
	}
}
