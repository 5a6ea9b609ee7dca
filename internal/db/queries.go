package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Client represents a client row.
type Client struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Site represents a site row belonging to a client.
type Site struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Probe represents a probe row belonging to a site.
type Probe struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
}

// Measurement is one stored probe snapshot joined with its probe address.
type Measurement struct {
	Address       string    `json:"address"`
	Timestamp     time.Time `json:"timestamp"`
	ProbeStatus   string    `json:"probe_status"`
	AlarmStatus   string    `json:"alarm_status"`
	TankStatus    string    `json:"tank_status"`
	Ullage        float64   `json:"ullage"`
	Product       float64   `json:"product"`
	Water         float64   `json:"water"`
	Density       float64   `json:"density"`
	Discriminator string    `json:"discriminator"`
	Temperatures  []float64 `json:"temperatures"`
}

const listClientsSQL = `SELECT id, name FROM clients ORDER BY name`

// ListClients returns all clients.
func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, listClientsSQL)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

const sitesForClientSQL = `SELECT id, name FROM sites WHERE client_id = $1 ORDER BY name`

// SitesForClient returns all sites of one client.
func (s *Store) SitesForClient(ctx context.Context, clientID int) ([]Site, error) {
	rows, err := s.pool.Query(ctx, sitesForClientSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]Site, 0)
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Name); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

const probesForSiteSQL = `SELECT id, probe_address FROM probes WHERE site_id = $1 ORDER BY probe_address`

// ProbesForSite returns all probes of one site.
func (s *Store) ProbesForSite(ctx context.Context, siteID int) ([]Probe, error) {
	rows, err := s.pool.Query(ctx, probesForSiteSQL, siteID)
	if err != nil {
		return nil, fmt.Errorf("list probes: %w", err)
	}
	defer rows.Close()

	probes := make([]Probe, 0)
	for rows.Next() {
		var p Probe
		if err := rows.Scan(&p.ID, &p.Address); err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return probes, rows.Err()
}

const measurementColumns = `
	p.probe_address, m.timestamp, m.status, m.alarm_status, m.tank_status,
	m.ullage, m.product, m.water, m.density, m.discriminator, m.temperatures
`

const latestMeasurementSQL = `
	SELECT ` + measurementColumns + `
	FROM measurements m
	JOIN probes p ON m.probe_id = p.id
	WHERE p.probe_address = $1
	ORDER BY m.timestamp DESC
	LIMIT 1
`

// LatestMeasurement returns the most recent measurement for a probe, or nil
// when the probe has none.
func (s *Store) LatestMeasurement(ctx context.Context, address string) (*Measurement, error) {
	row := s.pool.QueryRow(ctx, latestMeasurementSQL, address)
	m, err := scanMeasurement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest measurement: %w", err)
	}
	return &m, nil
}

const countHistorySQL = `
	SELECT COUNT(*)
	FROM measurements m
	JOIN probes p ON m.probe_id = p.id
	WHERE p.probe_address = $1
`

const historySQL = `
	SELECT ` + measurementColumns + `
	FROM measurements m
	JOIN probes p ON m.probe_id = p.id
	WHERE p.probe_address = $1
	ORDER BY m.timestamp DESC
	LIMIT $2 OFFSET $3
`

// MeasurementHistory returns one page of a probe's measurements in
// descending timestamp order, plus the total count for the probe. Pages are
// 1-based.
func (s *Store) MeasurementHistory(ctx context.Context, address string, page, pageSize int) ([]Measurement, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.pool.QueryRow(ctx, countHistorySQL, address).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx, historySQL, address, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch history: %w", err)
	}
	defer rows.Close()

	measurements := make([]Measurement, 0, pageSize)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, 0, err
		}
		measurements = append(measurements, m)
	}
	return measurements, total, rows.Err()
}

func scanMeasurement(row pgx.Row) (Measurement, error) {
	var m Measurement
	var temps []byte
	if err := row.Scan(
		&m.Address,
		&m.Timestamp,
		&m.ProbeStatus,
		&m.AlarmStatus,
		&m.TankStatus,
		&m.Ullage,
		&m.Product,
		&m.Water,
		&m.Density,
		&m.Discriminator,
		&temps,
	); err != nil {
		return Measurement{}, err
	}
	if len(temps) > 0 {
		if err := json.Unmarshal(temps, &m.Temperatures); err != nil {
			return Measurement{}, fmt.Errorf("decode temperatures: %w", err)
		}
	}
	return m, nil
}
