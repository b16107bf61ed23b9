// Command fit-import transcodes Garmin FIT activity and locations files into
// GPX documents, semicolon CSV files and a normalized SQLite database.
//
// Usage:
//
//	fit-import [-out DIR] [-db FILE] [-log-level LEVEL] FILE...
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fit-import/internal/config"
	"fit-import/internal/pipeline"
	"fit-import/internal/store"
)

func main() {
	outDir := flag.String("out", "", "output folder for GPX and CSV files (overrides FIT_OUTPUT_DIR)")
	dbPath := flag.String("db", "", "SQLite database path, created if missing (overrides FIT_DATABASE_PATH)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE...\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: no FIT files selected")
		flag.Usage()
		os.Exit(2)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("Metrics server stopped", "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
	}

	targets, err := cfg.Targets()
	if err != nil {
		logger.Error("No export target selected: set an output folder, a database path or both",
			"error", err)
		os.Exit(1)
	}

	imp := &pipeline.Importer{Targets: targets, Logger: logger}

	var db *store.DB
	if targets.HasStore() {
		db, err = store.Open(targets.DatabasePath)
		switch {
		case errors.Is(err, store.ErrSpatialUnavailable):
			logger.Error("Database export disabled, spatial functions unavailable", "error", err)
			if !targets.HasFolder() {
				os.Exit(1)
			}
		case err != nil:
			logger.Error("Failed to open database", "path", targets.DatabasePath, "error", err)
			os.Exit(1)
		default:
			defer db.Close()
			imp.Store = db
		}
	}

	var before map[string]int64
	if db != nil {
		before, err = db.TableCounts()
		if err != nil {
			logger.Error("Failed to read table counts", "error", err)
			os.Exit(1)
		}
	}

	summary := imp.Run(files)

	if db != nil {
		after, err := db.TableCounts()
		if err != nil {
			logger.Error("Failed to read table counts", "error", err)
			os.Exit(1)
		}
		logger.Info("Features imported",
			"activities", after["activities"]-before["activities"],
			"sessions", after["sessions"]-before["sessions"],
			"tracks", after["tracks"]-before["tracks"],
			"trackpoints", after["trackpoints"]-before["trackpoints"],
			"locations", after["locations"]-before["locations"])
	}

	logger.Info("Finished",
		"files_processed", summary.FilesProcessed,
		"gpx_documents", summary.GPXDocuments,
		"store_imports", summary.StoreImports,
		"failures", summary.Failures)
	if summary.Failures > 0 {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
