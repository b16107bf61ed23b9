package store

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"fit-import/internal/metrics"
	"fit-import/internal/model"
)

// Writers stage incoming rows into a connection-local temp table, merge with
// INSERT OR IGNORE so re-imports are no-ops, then refresh the target table's
// statistics. Geometry is computed inside the merge statement, never in Go.

// ImportActivity upserts one activity row.
func (db *DB) ImportActivity(a *model.Activity) error {
	return db.staged(metrics.DBOpImportActivity, metrics.TableActivities, stagedMerge{
		create: `CREATE TEMP TABLE staged_activities (
			filename TEXT, garmin_product TEXT, time_created TIMESTAMP,
			name TEXT, num_sessions INTEGER, sport TEXT, sub_sport TEXT,
			timestamp_local TIMESTAMP, timestamp_utc TIMESTAMP, total_timer_time REAL
		)`,
		insert: `INSERT INTO staged_activities VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		merge: `INSERT OR IGNORE INTO activities
			SELECT * FROM staged_activities`,
		drop: `DROP TABLE staged_activities`,
		rows: [][]any{{
			a.Filename, bindString(a.GarminProduct), bindTime(a.TimeCreated),
			bindString(a.Name), a.NumSessions, bindString(a.Sport), bindString(a.SubSport),
			bindTime(a.TimestampLocal), bindTime(a.TimestampUTC), bindFloat(a.TotalTimerTime),
		}},
	})
}

// ImportSessions upserts session rows; the geom point is built from the
// staged start position inside the merge.
func (db *DB) ImportSessions(sessions []*model.Session) error {
	rows := make([][]any, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []any{
			bindTime(s.StartTimeUTC), s.Filename, bindString(s.Name),
			bindString(s.Sport), bindString(s.SubSport),
			bindTime(s.StartTimeLocal), bindTime(s.EndTimeUTC),
			bindFloat(s.StartPositionLat), bindFloat(s.StartPositionLon),
			bindInt(s.AvgCadence), bindInt(s.MaxCadence),
			bindInt(s.AvgHeartRate), bindInt(s.MaxHeartRate),
			bindFloat(s.AvgSpeed), bindFloat(s.MaxSpeed),
			bindFloat(s.EnhancedAvgSpeed), bindFloat(s.EnhancedMaxSpeed),
			bindInt(s.AvgTemperature), bindInt(s.MaxTemperature),
			bindFloat(s.TotalAnaerobicEffect), bindInt(s.TotalAscent),
			bindInt(s.TotalCalories), bindInt(s.TotalDescent),
			bindFloat(s.TotalDistance), bindFloat(s.TotalElapsedTime),
			bindFloat(s.TotalTimerTime), bindFloat(s.TotalTrainingEffect),
		})
	}
	return db.staged(metrics.DBOpImportSessions, metrics.TableSessions, stagedMerge{
		create: `CREATE TEMP TABLE staged_sessions (
			start_time_utc TIMESTAMP, filename TEXT, name TEXT, sport TEXT, sub_sport TEXT,
			start_time_local TIMESTAMP, timestamp TIMESTAMP,
			start_position_lat REAL, start_position_lon REAL,
			avg_cadence INTEGER, max_cadence INTEGER,
			avg_heart_rate INTEGER, max_heart_rate INTEGER,
			avg_speed REAL, max_speed REAL,
			enhanced_avg_speed REAL, enhanced_max_speed REAL,
			avg_temperature INTEGER, max_temperature INTEGER,
			total_anaerobic_effect REAL, total_ascent INTEGER,
			total_calories INTEGER, total_descent INTEGER,
			total_distance REAL, total_elapsed_time REAL,
			total_timer_time REAL, total_training_effect REAL
		)`,
		insert: `INSERT INTO staged_sessions VALUES (` + placeholders(27) + `)`,
		merge: `INSERT OR IGNORE INTO sessions
			SELECT s.*, fit_makepoint(s.start_position_lon, s.start_position_lat)
			FROM staged_sessions s`,
		drop: `DROP TABLE staged_sessions`,
		rows: rows,
	})
}

// ImportTracks upserts track rows, serializing each vertex list into a WKT
// linestring via the staged body column.
func (db *DB) ImportTracks(tracks []*model.Track) error {
	rows := make([][]any, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []any{
			bindTime(t.StartTimeUTC), bindString(t.Name), bindString(t.Type),
			t.Comment, t.Source, t.LineString(),
		})
	}
	return db.staged(metrics.DBOpImportTracks, metrics.TableTracks, stagedMerge{
		create: `CREATE TEMP TABLE staged_tracks (
			start_time_utc TIMESTAMP, name TEXT, type TEXT, cmt TEXT, src TEXT,
			linestring_body TEXT
		)`,
		insert: `INSERT INTO staged_tracks VALUES (?, ?, ?, ?, ?, ?)`,
		merge: `INSERT OR IGNORE INTO tracks
			SELECT t.start_time_utc, t.name, t.type, t.cmt, t.src,
			       fit_linestring(t.linestring_body)
			FROM staged_tracks t`,
		drop: `DROP TABLE staged_tracks`,
		rows: rows,
	})
}

// ImportTrackpoints upserts trackpoint rows.
func (db *DB) ImportTrackpoints(points []model.Trackpoint) error {
	rows := make([][]any, 0, len(points))
	for _, p := range points {
		ts := p.Timestamp
		rows = append(rows, []any{
			bindTime(&ts), bindTime(p.StartTimeUTC),
			bindFloat(p.HeartRate), bindFloat(p.Temperature), bindFloat(p.Cadence),
			bindFloat(p.Lat), bindFloat(p.Lon),
			bindFloat(p.Altitude), bindFloat(p.Distance),
			bindFloat(p.Speed), bindFloat(p.VerticalSpeed),
		})
	}
	return db.staged(metrics.DBOpImportTrackpoints, metrics.TableTrackpoints, stagedMerge{
		create: `CREATE TEMP TABLE staged_trackpoints (
			timestamp TIMESTAMP, start_time_utc TIMESTAMP,
			heartrate REAL, temperature REAL, cadence REAL,
			position_lat REAL, position_lon REAL,
			altitude REAL, distance REAL, speed REAL, vertical_speed REAL
		)`,
		insert: `INSERT INTO staged_trackpoints VALUES (` + placeholders(11) + `)`,
		merge: `INSERT OR IGNORE INTO trackpoints
			SELECT p.*, fit_makepoint(p.position_lon, p.position_lat)
			FROM staged_trackpoints p`,
		drop: `DROP TABLE staged_trackpoints`,
		rows: rows,
	})
}

// ImportLocations upserts waypoint rows. Exact geometry duplicates fall to
// the UNIQUE column, near-duplicates to the proximity trigger.
func (db *DB) ImportLocations(locs []model.Location) error {
	rows := make([][]any, 0, len(locs))
	for _, loc := range locs {
		rows = append(rows, []any{
			bindString(loc.Name), bindFloat(loc.Elevation), loc.Symbol,
			bindTime(loc.Timestamp), bindString(loc.Comment), loc.Source,
			bindFloat(loc.Lat), bindFloat(loc.Lon),
		})
	}
	return db.staged(metrics.DBOpImportLocations, metrics.TableLocations, stagedMerge{
		create: `CREATE TEMP TABLE staged_locations (
			name TEXT, ele REAL, sym TEXT, time TIMESTAMP, cmt TEXT, src TEXT,
			latitude REAL, longitude REAL
		)`,
		insert: `INSERT INTO staged_locations VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		merge: `INSERT OR IGNORE INTO locations (name, ele, sym, time, cmt, src, geom)
			SELECT l.name, l.ele, l.sym, l.time, l.cmt, l.src,
			       fit_makepoint(l.longitude, l.latitude)
			FROM staged_locations l`,
		drop: `DROP TABLE staged_locations`,
		rows: rows,
	})
}

type stagedMerge struct {
	create string
	insert string
	merge  string
	drop   string
	rows   [][]any
}

func (db *DB) staged(op, table string, m stagedMerge) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(op))
	defer timer.ObserveDuration()

	if err := db.runStaged(table, m); err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(op).Inc()
		return err
	}
	return nil
}

func (db *DB) runStaged(table string, m stagedMerge) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.create); err != nil {
		return fmt.Errorf("failed to create staging table for %s: %w", table, err)
	}
	stmt, err := tx.Prepare(m.insert)
	if err != nil {
		return fmt.Errorf("failed to prepare staging insert for %s: %w", table, err)
	}
	for _, row := range m.rows {
		if _, err := stmt.Exec(row...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to stage row for %s: %w", table, err)
		}
		metrics.RowsStagedTotal.WithLabelValues(table).Inc()
	}
	stmt.Close()

	if _, err := tx.Exec(m.merge); err != nil {
		return fmt.Errorf("failed to merge staged rows into %s: %w", table, err)
	}
	if _, err := tx.Exec(m.drop); err != nil {
		return fmt.Errorf("failed to drop staging table for %s: %w", table, err)
	}
	if _, err := tx.Exec("ANALYZE " + table); err != nil {
		return fmt.Errorf("failed to refresh statistics for %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import into %s: %w", table, err)
	}
	return nil
}

// TableCounts returns the current row count of every import table.
func (db *DB) TableCounts() (map[string]int64, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpTableCounts))
	defer timer.ObserveDuration()

	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpTableCounts).Inc()
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func placeholders(n int) string {
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, '?')
	}
	return string(out)
}
