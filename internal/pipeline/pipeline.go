package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"fit-import/internal/config"
	"fit-import/internal/csvout"
	"fit-import/internal/decoder"
	"fit-import/internal/fitmsg"
	"fit-import/internal/gpx"
	"fit-import/internal/metrics"
	"fit-import/internal/model"
)

// ErrUnsupportedFile marks a FIT file whose type is neither activity nor
// locations. Batch processing reports it and moves on.
var ErrUnsupportedFile = errors.New("unsupported FIT file type")

// Store is the persistence half of the pipeline. A nil Store on the
// Importer skips database export entirely.
type Store interface {
	ImportActivity(a *model.Activity) error
	ImportSessions(sessions []*model.Session) error
	ImportTracks(tracks []*model.Track) error
	ImportTrackpoints(points []model.Trackpoint) error
	ImportLocations(locs []model.Location) error
}

// Importer drives the per-file transcoding. Both export paths are optional
// and independent; a file can land in the folder, the store, or both.
type Importer struct {
	Targets   config.ExportTargets
	Store     Store
	Elevation ElevationSource
	Logger    *slog.Logger
}

// Result reports what one file produced.
type Result struct {
	Kind         decoder.Kind
	GPXDocuments int
	StoreWritten bool
}

// Summary aggregates a batch run.
type Summary struct {
	FilesProcessed int
	GPXDocuments   int
	StoreImports   int
	Failures       int
}

// ProcessFile decodes one FIT file and exports it to every configured
// target. Unsupported file types return ErrUnsupportedFile.
func (imp *Importer) ProcessFile(path string) (*Result, error) {
	timer := prometheus.NewTimer(metrics.FileProcessingDuration)
	defer timer.ObserveDuration()

	src, kind, err := decoder.Open(path)
	if err != nil {
		metrics.FilesProcessedTotal.WithLabelValues(kind.String(), metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if kind == decoder.KindUnsupported {
		metrics.FilesProcessedTotal.WithLabelValues(kind.String(), metrics.ResultUnsupported).Inc()
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}

	var res *Result
	switch kind {
	case decoder.KindActivity:
		res, err = imp.processActivity(path, src)
	case decoder.KindLocations:
		res, err = imp.processLocations(path, src)
	}
	if err != nil {
		metrics.FilesProcessedTotal.WithLabelValues(kind.String(), metrics.ResultFailure).Inc()
		return nil, err
	}
	metrics.FilesProcessedTotal.WithLabelValues(kind.String(), metrics.ResultSuccess).Inc()
	return res, nil
}

func (imp *Importer) processActivity(path string, src fitmsg.Source) (*Result, error) {
	base := filepath.Base(path)
	activity := classifyActivity(src, base)
	sessions := buildSessions(src, activity)
	records := classifyRecords(src)
	tracks, points := partition(sessions, records, imp.Elevation, base)

	res := &Result{Kind: decoder.KindActivity}
	if imp.Targets.HasFolder() {
		if err := csvout.AppendActivity(imp.Targets.OutputDir, activity); err != nil {
			return nil, err
		}
		if err := csvout.AppendSessions(imp.Targets.OutputDir, sessions); err != nil {
			return nil, err
		}
		n, err := gpx.WriteTracks(imp.Targets.OutputDir, sessions, points, base)
		if err != nil {
			return nil, err
		}
		res.GPXDocuments = n
	}
	if imp.Store != nil {
		if err := imp.Store.ImportActivity(activity); err != nil {
			return nil, fmt.Errorf("failed to import activity %s: %w", base, err)
		}
		if err := imp.Store.ImportSessions(sessions); err != nil {
			return nil, fmt.Errorf("failed to import sessions of %s: %w", base, err)
		}
		if err := imp.Store.ImportTracks(tracks); err != nil {
			return nil, fmt.Errorf("failed to import tracks of %s: %w", base, err)
		}
		if err := imp.Store.ImportTrackpoints(points); err != nil {
			return nil, fmt.Errorf("failed to import trackpoints of %s: %w", base, err)
		}
		res.StoreWritten = true
	}
	return res, nil
}

func (imp *Importer) processLocations(path string, src fitmsg.Source) (*Result, error) {
	locs := extractLocations(src, sourceDescriptor(path))

	res := &Result{Kind: decoder.KindLocations}
	if imp.Targets.HasFolder() {
		if err := csvout.AppendLocations(imp.Targets.OutputDir, locs); err != nil {
			return nil, err
		}
		if err := gpx.WriteWaypoints(imp.Targets.OutputDir, locs); err != nil {
			return nil, err
		}
		res.GPXDocuments = 1
	}
	if imp.Store != nil {
		if err := imp.Store.ImportLocations(locs); err != nil {
			return nil, fmt.Errorf("failed to import locations of %s: %w", filepath.Base(path), err)
		}
		res.StoreWritten = true
	}
	return res, nil
}

// Run processes a batch of paths, isolating per-file failures so one bad
// file never stops the rest.
func (imp *Importer) Run(paths []string) Summary {
	var sum Summary
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			imp.logger().Error("Skipping unreadable path", "path", path, "error", err)
			sum.Failures++
			continue
		}
		if info.IsDir() {
			imp.logger().Warn("Skipping directory", "path", path)
			continue
		}

		imp.logger().Info("Processing file", "path", path)
		res, err := imp.ProcessFile(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFile) {
				imp.logger().Warn("Skipping unsupported file", "path", path)
			} else {
				imp.logger().Error("Failed to process file", "path", path, "error", err)
			}
			sum.Failures++
			continue
		}
		sum.FilesProcessed++
		sum.GPXDocuments += res.GPXDocuments
		if res.StoreWritten {
			sum.StoreImports++
		}
	}
	return sum
}

func (imp *Importer) logger() *slog.Logger {
	if imp.Logger != nil {
		return imp.Logger
	}
	return slog.Default()
}

// sourceDescriptor builds the provenance stamp written to src columns:
// the file's base name followed by its modification time in UTC.
func sourceDescriptor(path string) string {
	base := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return base
	}
	return base + " " + info.ModTime().UTC().Format("2006-01-02 15:04:05")
}
