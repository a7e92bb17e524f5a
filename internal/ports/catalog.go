package ports

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/geo"
)

// TimeOfDay is a wall-clock time within a day, minute resolution
type TimeOfDay struct {
	Hour   int
	Minute int
}

// MinuteOfDay returns the number of minutes since midnight
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses an "HH:MM" string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return tod, nil
}

// MarshalJSON encodes the time as "HH:MM"
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an "HH:MM" string
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TideWindow is a recurring daily interval during which arrival is permitted.
// A window whose end precedes its start wraps past midnight.
type TideWindow struct {
	StartTime   TimeOfDay `json:"startTime"`
	EndTime     TimeOfDay `json:"endTime"`
	Description string    `json:"description"`
}

// Port is a destination with scheduling constraints. Ports are loaded once at
// startup and treated as read-only afterwards.
type Port struct {
	PortCode    string       `json:"portCode"`
	Name        string       `json:"name"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	IsTidal     bool         `json:"isTidal"`
	TideWindows []TideWindow `json:"tideWindows"`
	Country     string       `json:"country"`
}

// Catalog holds the immutable set of configured ports
type Catalog struct {
	ports []Port
}

// NewCatalog builds a catalog from the given ports. Tide windows are sorted by
// start time so schedulers can scan them in order. An empty catalog is a
// configuration error.
func NewCatalog(portList []Port) (*Catalog, error) {
	if len(portList) == 0 {
		return nil, fmt.Errorf("port catalog is empty")
	}

	ports := make([]Port, len(portList))
	copy(ports, portList)
	for i := range ports {
		windows := make([]TideWindow, len(ports[i].TideWindows))
		copy(windows, ports[i].TideWindows)
		sort.SliceStable(windows, func(a, b int) bool {
			return windows[a].StartTime.MinuteOfDay() < windows[b].StartTime.MinuteOfDay()
		})
		ports[i].TideWindows = windows
	}

	return &Catalog{ports: ports}, nil
}

// LoadCatalog reads a port catalog from a JSON file. An empty path loads the
// built-in default ports.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(DefaultPorts())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read port catalog: %w", err)
	}

	var portList []Port
	if err := json.Unmarshal(data, &portList); err != nil {
		return nil, fmt.Errorf("failed to parse port catalog: %w", err)
	}

	return NewCatalog(portList)
}

// All returns every configured port
func (c *Catalog) All() []Port {
	result := make([]Port, len(c.ports))
	copy(result, c.ports)
	return result
}

// ByCode returns the port with the given code
func (c *Catalog) ByCode(portCode string) (*Port, bool) {
	for i := range c.ports {
		if c.ports[i].PortCode == portCode {
			port := c.ports[i]
			return &port, true
		}
	}
	return nil, false
}

// Nearest returns the port geometrically closest to the given position. There
// is deliberately no maximum-distance cutoff: the nearest configured port wins
// regardless of how far away it is.
func (c *Catalog) Nearest(latitude, longitude float64) *Port {
	var nearest *Port
	best := 0.0

	for i := range c.ports {
		d := geo.DistanceNauticalMiles(latitude, longitude, c.ports[i].Latitude, c.ports[i].Longitude)
		if nearest == nil || d < best {
			port := c.ports[i]
			nearest = &port
			best = d
		}
	}

	return nearest
}

// DefaultPorts returns the built-in UK port catalog
func DefaultPorts() []Port {
	return []Port{
		{
			PortCode:  "FXT",
			Name:      "Felixstowe",
			Latitude:  51.9514,
			Longitude: 1.3062,
			IsTidal:   true,
			Country:   "UK",
			TideWindows: []TideWindow{
				{StartTime: TimeOfDay{8, 43}, EndTime: TimeOfDay{14, 43}, Description: "Morning High Tide"},
				{StartTime: TimeOfDay{20, 57}, EndTime: TimeOfDay{2, 57}, Description: "Evening High Tide"},
			},
		},
		{
			PortCode:  "LGW",
			Name:      "London Gateway",
			Latitude:  51.5074,
			Longitude: 0.1278,
			IsTidal:   true,
			Country:   "UK",
			TideWindows: []TideWindow{
				{StartTime: TimeOfDay{9, 15}, EndTime: TimeOfDay{15, 15}, Description: "Morning High Tide"},
				{StartTime: TimeOfDay{21, 30}, EndTime: TimeOfDay{3, 30}, Description: "Evening High Tide"},
			},
		},
		{
			PortCode:  "LIV",
			Name:      "Liverpool",
			Latitude:  53.4668,
			Longitude: -3.0338,
			IsTidal:   true,
			Country:   "UK",
			TideWindows: []TideWindow{
				{StartTime: TimeOfDay{7, 30}, EndTime: TimeOfDay{13, 30}, Description: "Morning High Tide"},
				{StartTime: TimeOfDay{19, 45}, EndTime: TimeOfDay{1, 45}, Description: "Evening High Tide"},
			},
		},
		{
			PortCode:  "IMM",
			Name:      "Immingham",
			Latitude:  53.6333,
			Longitude: -0.2167,
			IsTidal:   true,
			Country:   "UK",
			TideWindows: []TideWindow{
				{StartTime: TimeOfDay{8, 0}, EndTime: TimeOfDay{14, 0}, Description: "Morning High Tide"},
				{StartTime: TimeOfDay{20, 15}, EndTime: TimeOfDay{2, 15}, Description: "Evening High Tide"},
			},
		},
	}
}
