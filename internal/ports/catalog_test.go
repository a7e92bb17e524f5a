package ports

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCatalogEmpty(t *testing.T) {
	if _, err := NewCatalog(nil); err == nil {
		t.Error("Expected error for empty catalog")
	}
}

func TestCatalogNearest(t *testing.T) {
	catalog, err := NewCatalog(DefaultPorts())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	// A vessel just off Felixstowe
	port := catalog.Nearest(51.90, 1.30)
	if port == nil {
		t.Fatal("Nearest returned nil")
	}
	if port.PortCode != "FXT" {
		t.Errorf("Expected FXT, got %s", port.PortCode)
	}

	// Liverpool Bay
	port = catalog.Nearest(53.5, -3.2)
	if port.PortCode != "LIV" {
		t.Errorf("Expected LIV, got %s", port.PortCode)
	}
}

func TestCatalogNearestNoDistanceCutoff(t *testing.T) {
	catalog, _ := NewCatalog(DefaultPorts())

	// Far side of the globe still resolves to the nearest configured port
	port := catalog.Nearest(-33.8688, 151.2093)
	if port == nil {
		t.Fatal("Expected a port for an antipodal position")
	}
}

func TestCatalogByCode(t *testing.T) {
	catalog, _ := NewCatalog(DefaultPorts())

	port, ok := catalog.ByCode("LGW")
	if !ok {
		t.Fatal("Expected to find LGW")
	}
	if port.Name != "London Gateway" {
		t.Errorf("Expected London Gateway, got %s", port.Name)
	}

	if _, ok := catalog.ByCode("NOPE"); ok {
		t.Error("Expected lookup miss for unknown code")
	}
}

func TestCatalogSortsTideWindows(t *testing.T) {
	catalog, err := NewCatalog([]Port{{
		PortCode: "TST",
		Name:     "Test Port",
		IsTidal:  true,
		TideWindows: []TideWindow{
			{StartTime: TimeOfDay{20, 57}, EndTime: TimeOfDay{2, 57}},
			{StartTime: TimeOfDay{8, 43}, EndTime: TimeOfDay{14, 43}},
		},
	}})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	port, _ := catalog.ByCode("TST")
	if port.TideWindows[0].StartTime.Hour != 8 {
		t.Errorf("Expected windows sorted by start time, first starts at %s", port.TideWindows[0].StartTime)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	content := `[
		{
			"portCode": "RTM",
			"name": "Rotterdam",
			"latitude": 51.9490,
			"longitude": 4.1453,
			"isTidal": false,
			"country": "NL"
		},
		{
			"portCode": "HAR",
			"name": "Harwich",
			"latitude": 51.9470,
			"longitude": 1.2880,
			"isTidal": true,
			"tideWindows": [
				{"startTime": "06:30", "endTime": "12:30", "description": "Morning High Tide"}
			]
		}
	]`

	path := filepath.Join(t.TempDir(), "ports.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	port, ok := catalog.ByCode("HAR")
	if !ok {
		t.Fatal("Expected to find HAR")
	}
	if len(port.TideWindows) != 1 {
		t.Fatalf("Expected 1 tide window, got %d", len(port.TideWindows))
	}
	if port.TideWindows[0].StartTime != (TimeOfDay{6, 30}) {
		t.Errorf("Expected window start 06:30, got %s", port.TideWindows[0].StartTime)
	}
}

func TestLoadCatalogDefault(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog.All()) != 4 {
		t.Errorf("Expected 4 built-in ports, got %d", len(catalog.All()))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("20:57")
	if err != nil {
		t.Fatalf("ParseTimeOfDay failed: %v", err)
	}
	if tod.MinuteOfDay() != 20*60+57 {
		t.Errorf("Expected minute of day %d, got %d", 20*60+57, tod.MinuteOfDay())
	}

	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Error("Expected error for out-of-range hour")
	}
}
