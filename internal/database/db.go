package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

// InsertPrediction archives one published ETA prediction
func (db *DB) InsertPrediction(p *PredictionRecord) error {
	query := `
		INSERT INTO eta_predictions (
			mmsi, port_code, estimated_arrival_utc, delay_risk,
			distance_nm, average_speed_knots, conditions,
			wind_speed_knots, wave_height_m, tidal_constraint,
			prediction_timestamp_utc, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	return db.QueryRow(
		query,
		p.Mmsi,
		p.PortCode,
		p.EstimatedArrivalUtc,
		p.DelayRisk,
		p.DistanceNm,
		p.AverageSpeedKnots,
		p.Conditions,
		p.WindSpeedKnots,
		p.WaveHeightM,
		p.TidalConstraint,
		p.PredictionTimestampUtc,
		p.ReceivedAt,
	).Scan(&p.ID)
}

// LatestPrediction returns the most recently archived prediction for a vessel
func (db *DB) LatestPrediction(mmsi string) (*PredictionRecord, error) {
	query := `
		SELECT id, mmsi, port_code, estimated_arrival_utc, delay_risk,
		       distance_nm, average_speed_knots, conditions,
		       wind_speed_knots, wave_height_m, tidal_constraint,
		       prediction_timestamp_utc, received_at
		FROM eta_predictions
		WHERE mmsi = $1
		ORDER BY prediction_timestamp_utc DESC
		LIMIT 1
	`

	var p PredictionRecord
	err := db.QueryRow(query, mmsi).Scan(
		&p.ID,
		&p.Mmsi,
		&p.PortCode,
		&p.EstimatedArrivalUtc,
		&p.DelayRisk,
		&p.DistanceNm,
		&p.AverageSpeedKnots,
		&p.Conditions,
		&p.WindSpeedKnots,
		&p.WaveHeightM,
		&p.TidalConstraint,
		&p.PredictionTimestampUtc,
		&p.ReceivedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// PurgeOlderThan removes archived predictions outside the retention window
// and returns how many rows were deleted
func (db *DB) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM eta_predictions WHERE prediction_timestamp_utc < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge predictions: %w", err)
	}
	return result.RowsAffected()
}
