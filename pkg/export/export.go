package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/nicktill/logdna-export/pkg/config"
	"github.com/nicktill/logdna-export/pkg/logdna"
	"github.com/nicktill/logdna-export/pkg/window"
)

// Exporter walks an export range window by window, fetching each window
// from the upstream API and writing the body to its own file.
type Exporter struct {
	fetcher logdna.Fetcher
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the wall clock used to name the run directory.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithLogger overrides the logger (default: the logrus standard logger).
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) { e.log = log }
}

// NewExporter creates a new exporter
func NewExporter(fetcher logdna.Fetcher, opts ...Option) *Exporter {
	e := &Exporter{
		fetcher: fetcher,
		now:     time.Now,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run exports [cfg.Start, cfg.End] in cfg.WindowSize steps. Windows are
// fetched strictly one after another. A failed window is logged, recorded
// in the summary and skipped; the run moves on to the next window.
//
// The returned error is non-nil only when the run could not start (bad
// config, output directory) or ctx was cancelled between windows. The
// summary is returned in both cases.
func (e *Exporter) Run(ctx context.Context, cfg config.ExportConfig) (*Summary, error) {
	if cfg.WindowSize <= 0 {
		return nil, &config.ConfigurationError{Err: fmt.Errorf("window size must be positive, got %v", cfg.WindowSize)}
	}
	if cfg.End.Before(cfg.Start) {
		return nil, &config.ConfigurationError{Err: errors.New("end date is before start date")}
	}

	runStart := e.now()
	dir, err := CreateRunDir(cfg.OutputDir, cfg.Start, cfg.End, runStart)
	if err != nil {
		return nil, err
	}

	total := window.Count(cfg.Start, cfg.End, cfg.WindowSize)
	e.log.WithFields(logrus.Fields{
		"dir":     dir,
		"windows": total,
		"window":  cfg.WindowSize.String(),
	}).Infof("📁 Exporting %s to %s", cfg.Start.UTC().Format(time.RFC3339), cfg.End.UTC().Format(time.RFC3339))

	summary := &Summary{Dir: dir, Started: runStart}

	cursor := window.NewCursor(cfg.Start, cfg.End, cfg.WindowSize)
	for cursor.Next() {
		if err := ctx.Err(); err != nil {
			summary.Finished = e.now()
			return summary, err
		}

		w := cursor.Window()
		result := e.exportWindow(ctx, dir, w, cfg.Query)
		summary.Results = append(summary.Results, result)

		entry := e.log.WithFields(logrus.Fields{
			"window":   w.String(),
			"progress": fmt.Sprintf("%d/%d", len(summary.Results), total),
		})
		if result.Err != nil {
			entry.WithError(result.Err).Error("❌ Window export failed")
			continue
		}
		entry.WithField("checksum", fmt.Sprintf("%016x", result.Checksum)).
			Infof("✅ Wrote %s (%s)", filepath.Base(result.Path), humanize.Bytes(uint64(result.Bytes)))
	}

	summary.Finished = e.now()
	return summary, nil
}

// exportWindow fetches and persists a single window.
func (e *Exporter) exportWindow(ctx context.Context, dir string, w window.Window, query string) WindowResult {
	body, err := e.fetcher.Fetch(ctx, w, query)
	if err != nil {
		return WindowResult{Window: w, Err: err}
	}

	path := filepath.Join(dir, w.FileName())
	if err := writeOnce(path, body); err != nil {
		return WindowResult{Window: w, Err: err}
	}

	return WindowResult{
		Window:   w,
		Path:     path,
		Bytes:    int64(len(body)),
		Checksum: xxhash.Sum64(body),
	}
}

// writeOnce creates path and writes data to it. It refuses to touch an
// existing file.
func writeOnce(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, err)
	}
	return nil
}
