// Package ingest runs the normalize -> validate -> persist pipeline for one
// site snapshot document. Document-level parse failures abort the document;
// record-level validation failures drop only the offending record.
package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/zerotwo/cloudprobe/internal/models"
	"github.com/zerotwo/cloudprobe/internal/probexml"
	"github.com/zerotwo/cloudprobe/internal/validate"
)

// MeasurementStore is the narrow persistence contract the pipeline writes
// through. Saves are idempotent on the (address, datetime) identity.
type MeasurementStore interface {
	MeasurementExists(ctx context.Context, address, datetime string) (bool, error)
	SaveMeasurement(ctx context.Context, rec models.ProbeRecord) error
}

// AlarmPublisher notifies downstream consumers of records arriving in alarm
// state.
type AlarmPublisher interface {
	PublishAlarm(ctx context.Context, rec models.ProbeRecord) error
}

// Record outcome states.
const (
	StatusImported  = "imported"
	StatusDuplicate = "duplicate"
	StatusInvalid   = "invalid"
	StatusError     = "error"
)

// RecordResult is the per-probe outcome of processing one document.
type RecordResult struct {
	Address    string   `json:"probe"`
	Status     string   `json:"status"`
	Violations []string `json:"violations,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Pipeline wires the core layers to a store and an optional alarm publisher.
type Pipeline struct {
	Store  MeasurementStore
	Alarms AlarmPublisher
	Log    *logrus.Logger
}

// ProcessDocument normalizes a raw XML snapshot and validates and persists
// each canonical record independently. It returns a *probexml.ParseError for
// structural failures; record-level problems are reported in the results and
// never abort sibling records.
func (p *Pipeline) ProcessDocument(ctx context.Context, data []byte) ([]RecordResult, error) {
	records, err := probexml.Normalize(data)
	if err != nil {
		return nil, err
	}

	results := make([]RecordResult, 0, len(records))
	for _, rec := range records {
		results = append(results, p.processRecord(ctx, rec))
	}
	return results, nil
}

// ProcessFile reads one XML file and processes it as a document.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) ([]RecordResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read probe file: %w", err)
	}
	return p.ProcessDocument(ctx, data)
}

func (p *Pipeline) processRecord(ctx context.Context, rec models.ProbeRecord) RecordResult {
	result := RecordResult{Address: rec.Address}

	verdict := validate.Validate(rec)
	if !verdict.Valid {
		result.Status = StatusInvalid
		result.Violations = verdict.Violations
		return result
	}

	exists, err := p.Store.MeasurementExists(ctx, rec.Address, rec.DateTime)
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		return result
	}
	if exists {
		result.Status = StatusDuplicate
		return result
	}

	if err := p.Store.SaveMeasurement(ctx, rec); err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		return result
	}
	result.Status = StatusImported

	if p.Alarms != nil && rec.AlarmStatus == models.AlarmStatusAlarm {
		if err := p.Alarms.PublishAlarm(ctx, rec); err != nil && p.Log != nil {
			p.Log.WithFields(logrus.Fields{
				"address":  rec.Address,
				"datetime": rec.DateTime,
			}).WithError(err).Warn("alarm event publish failed")
		}
	}
	return result
}
