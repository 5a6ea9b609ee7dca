// Package importer scans a directory of XML snapshot files and runs them
// through the ingestion pipeline with a fixed-size worker pool. One bad file
// or record never stops the run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zerotwo/cloudprobe/internal/ingest"
	"github.com/zerotwo/cloudprobe/internal/probexml"
)

// Summary aggregates the outcome of one import run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Files       int           `json:"files"`
	FilesFailed int64         `json:"files_failed"`
	Imported    int64         `json:"imported"`
	Duplicates  int64         `json:"duplicates"`
	Invalid     int64         `json:"invalid"`
	Errors      int64         `json:"errors"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Run imports every *.xml / *.XML file under dir using the given number of
// parallel workers. Parallel processing is safe because each document is
// independent and the store is idempotent per (address, datetime).
func Run(ctx context.Context, pipeline *ingest.Pipeline, dir string, workers int, log *logrus.Logger) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.New().String()}

	lower, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return summary, fmt.Errorf("scan import directory: %w", err)
	}
	upper, err := filepath.Glob(filepath.Join(dir, "*.XML"))
	if err != nil {
		return summary, fmt.Errorf("scan import directory: %w", err)
	}
	files := append(lower, upper...)
	summary.Files = len(files)
	if len(files) == 0 {
		return summary, fmt.Errorf("no XML files found in %s", dir)
	}

	if workers < 1 {
		workers = 1
	}

	var imported, duplicates, invalid, errCount, filesFailed int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, path := range files {
		path := path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results, err := pipeline.ProcessFile(groupCtx, path)
			if err != nil {
				atomic.AddInt64(&filesFailed, 1)
				var parseErr *probexml.ParseError
				if errors.As(err, &parseErr) {
					log.WithField("file", filepath.Base(path)).Warnf("skipping file: %v", parseErr)
					return nil
				}
				log.WithField("file", filepath.Base(path)).WithError(err).Warn("skipping unreadable file")
				return nil
			}

			for _, result := range results {
				switch result.Status {
				case ingest.StatusImported:
					atomic.AddInt64(&imported, 1)
				case ingest.StatusDuplicate:
					atomic.AddInt64(&duplicates, 1)
				case ingest.StatusInvalid:
					atomic.AddInt64(&invalid, 1)
					log.WithFields(logrus.Fields{
						"file":  filepath.Base(path),
						"probe": result.Address,
					}).Warnf("invalid record: %v", result.Violations)
				case ingest.StatusError:
					atomic.AddInt64(&errCount, 1)
					log.WithFields(logrus.Fields{
						"file":  filepath.Base(path),
						"probe": result.Address,
					}).Warnf("save failed: %s", result.Error)
				}
			}
			return nil
		})
	}

	err = group.Wait()

	summary.Imported = atomic.LoadInt64(&imported)
	summary.Duplicates = atomic.LoadInt64(&duplicates)
	summary.Invalid = atomic.LoadInt64(&invalid)
	summary.Errors = atomic.LoadInt64(&errCount)
	summary.FilesFailed = atomic.LoadInt64(&filesFailed)
	summary.Elapsed = time.Since(start)
	return summary, err
}
