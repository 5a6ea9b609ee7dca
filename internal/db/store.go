package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zerotwo/cloudprobe/internal/models"
	"github.com/zerotwo/cloudprobe/internal/validate"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sites (
		id SERIAL PRIMARY KEY,
		client_id INTEGER NOT NULL REFERENCES clients(id),
		name VARCHAR(100) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(client_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS probes (
		id SERIAL PRIMARY KEY,
		site_id INTEGER NOT NULL REFERENCES sites(id),
		probe_address VARCHAR(10) NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		id SERIAL PRIMARY KEY,
		probe_id INTEGER NOT NULL REFERENCES probes(id),
		timestamp TIMESTAMP NOT NULL,
		status VARCHAR(2) NOT NULL,
		alarm_status VARCHAR(2) NOT NULL DEFAULT '0',
		tank_status VARCHAR(2) NOT NULL DEFAULT '0',
		ullage DECIMAL(7,2) NOT NULL DEFAULT 0,
		product DECIMAL(7,2) NOT NULL,
		water DECIMAL(7,2) NOT NULL,
		density DECIMAL(6,2) NOT NULL,
		discriminator CHAR(1) NOT NULL,
		temperatures JSON NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(probe_id, timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements(timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_probes_address ON probes(probe_address)`,
	`CREATE INDEX IF NOT EXISTS idx_sites_client ON sites(client_id)`,
}

// EnsureSchema creates the client -> site -> probe -> measurement tables and
// their indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const upsertClientSQL = `
	INSERT INTO clients (name) VALUES ($1)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id
`

const upsertSiteSQL = `
	INSERT INTO sites (client_id, name) VALUES ($1, $2)
	ON CONFLICT (client_id, name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id
`

const upsertProbeSQL = `
	INSERT INTO probes (site_id, probe_address) VALUES ($1, $2)
	ON CONFLICT (probe_address) DO UPDATE SET probe_address = EXCLUDED.probe_address
	RETURNING id
`

const insertMeasurementSQL = `
	INSERT INTO measurements
		(probe_id, timestamp, status, alarm_status, tank_status, ullage, product, water, density, discriminator, temperatures)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (probe_id, timestamp) DO NOTHING
`

// SaveMeasurement persists one validated canonical record, creating the
// implied client, site and probe rows on first sight. Re-saving the same
// (address, datetime) identity is a no-op.
func (s *Store) SaveMeasurement(ctx context.Context, rec models.ProbeRecord) error {
	ts, err := time.Parse(validate.DateTimeLayout, rec.DateTime)
	if err != nil {
		return fmt.Errorf("parse measurement timestamp: %w", err)
	}

	ullage, err := strconv.ParseFloat(rec.Ullage, 64)
	if err != nil {
		return fmt.Errorf("parse ullage: %w", err)
	}
	product, err := strconv.ParseFloat(rec.Product, 64)
	if err != nil {
		return fmt.Errorf("parse product: %w", err)
	}
	water, err := strconv.ParseFloat(rec.Water, 64)
	if err != nil {
		return fmt.Errorf("parse water: %w", err)
	}
	density, err := strconv.ParseFloat(rec.Density, 64)
	if err != nil {
		return fmt.Errorf("parse density: %w", err)
	}
	temperatures, err := temperatureJSON(rec.Temperatures)
	if err != nil {
		return err
	}

	var clientID int
	clientName := "Customer " + rec.CustomerID
	if err := s.pool.QueryRow(ctx, upsertClientSQL, clientName).Scan(&clientID); err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}

	var siteID int
	siteName := "Site " + rec.SiteID
	if err := s.pool.QueryRow(ctx, upsertSiteSQL, clientID, siteName).Scan(&siteID); err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}

	var probeID int
	if err := s.pool.QueryRow(ctx, upsertProbeSQL, siteID, rec.Address).Scan(&probeID); err != nil {
		return fmt.Errorf("upsert probe: %w", err)
	}

	if _, err := s.pool.Exec(ctx, insertMeasurementSQL,
		probeID, ts, rec.ProbeStatus, rec.AlarmStatus, rec.TankStatus,
		ullage, product, water, density, rec.Discriminator, temperatures,
	); err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

func temperatureJSON(values []string) ([]byte, error) {
	temps := make([]float64, 0, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse temperature: %w", err)
		}
		temps = append(temps, f)
	}
	return json.Marshal(temps)
}

const measurementExistsSQL = `
	SELECT 1
	FROM measurements m
	JOIN probes p ON m.probe_id = p.id
	WHERE p.probe_address = $1 AND m.timestamp = $2
	LIMIT 1
`

// MeasurementExists reports whether a measurement is already stored for the
// (address, datetime) identity.
func (s *Store) MeasurementExists(ctx context.Context, address, datetime string) (bool, error) {
	ts, err := time.Parse(validate.DateTimeLayout, datetime)
	if err != nil {
		return false, fmt.Errorf("parse measurement timestamp: %w", err)
	}

	var one int
	err = s.pool.QueryRow(ctx, measurementExistsSQL, address, ts).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check measurement: %w", err)
	}
	return true, nil
}
