// Package store persists imported rows into a normalized SQLite database.
// Geometry columns hold WKT text built by scalar SQL functions registered on
// the driver, so merges and the proximity trigger run entirely inside the
// database the way the rest of the schema does.
package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	sqlite "modernc.org/sqlite"
)

// ErrSpatialUnavailable reports that the driver's spatial functions could
// not be registered or probed. Callers keep folder export alive and drop
// only the database path.
var ErrSpatialUnavailable = errors.New("spatial functions unavailable")

var (
	registerOnce sync.Once
	registerErr  error
)

// DB wraps the pooled connection. A single connection is kept open because
// the staged-merge writers rely on connection-scoped temp tables.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the database at path, registers the
// spatial SQL functions, applies the schema and probes spatial capability.
func Open(path string) (*DB, error) {
	registerOnce.Do(registerSpatialFuncs)
	if registerErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpatialUnavailable, registerErr)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.probeSpatial(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// probeSpatial runs a trivial geometry expression so a broken registration
// surfaces at open time instead of mid-import.
func (db *DB) probeSpatial() error {
	var wkt string
	if err := db.conn.QueryRow(`SELECT fit_makepoint(0.0, 0.0)`).Scan(&wkt); err != nil {
		return fmt.Errorf("%w: probe failed: %v", ErrSpatialUnavailable, err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func registerSpatialFuncs() {
	defer func() {
		if r := recover(); r != nil {
			registerErr = fmt.Errorf("register spatial functions: %v", r)
		}
	}()

	// fit_makepoint(lon, lat) -> 'POINT(lon lat)', NULL if either side is
	// NULL or non-numeric.
	sqlite.MustRegisterDeterministicScalarFunction("fit_makepoint", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			lon, ok := argFloat(args[0])
			if !ok {
				return nil, nil
			}
			lat, ok := argFloat(args[1])
			if !ok {
				return nil, nil
			}
			return "POINT(" + formatCoord(lon) + " " + formatCoord(lat) + ")", nil
		})

	// fit_linestring(body) wraps a pre-serialized "lon lat, lon lat" vertex
	// list; NULL or empty input yields NULL so empty tracks store no geometry.
	sqlite.MustRegisterDeterministicScalarFunction("fit_linestring", 1,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			body, ok := argString(args[0])
			if !ok || body == "" {
				return nil, nil
			}
			return "LINESTRING(" + body + ")", nil
		})

	// fit_geomdistance(a, b) is the planar distance between two POINT WKT
	// values, NULL when either is missing or not a point.
	sqlite.MustRegisterDeterministicScalarFunction("fit_geomdistance", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			ax, ay, ok := parsePoint(args[0])
			if !ok {
				return nil, nil
			}
			bx, by, ok := parsePoint(args[1])
			if !ok {
				return nil, nil
			}
			return math.Hypot(ax-bx, ay-by), nil
		})
}

func argFloat(v driver.Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func argString(v driver.Value) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

func parsePoint(v driver.Value) (x, y float64, ok bool) {
	s, ok := argString(v)
	if !ok {
		return 0, 0, false
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "POINT(") || !strings.HasSuffix(s, ")") {
		return 0, 0, false
	}
	parts := strings.Fields(s[len("POINT(") : len(s)-1])
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const timeLayout = "2006-01-02T15:04:05"

// SQL bind helpers: nil pointers become NULL.

func bindTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func bindFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func bindInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func bindString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
