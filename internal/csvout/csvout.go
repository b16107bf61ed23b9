// Package csvout appends imported rows to semicolon-separated CSV files in
// the output folder. Files accumulate across runs; the header and a UTF-8
// BOM are written only when a file is still empty.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fit-import/internal/model"
)

const (
	ActivitiesFile = "activities.csv"
	SessionsFile   = "sessions.csv"
	LocationsFile  = "locations.csv"

	timeLayout = "2006-01-02T15:04:05"
	utf8BOM    = "\xEF\xBB\xBF"
)

var activitiesHeader = []string{
	"filename", "garmin_product", "time_created", "name", "num_sessions",
	"sport", "sub_sport", "timestamp_local", "timestamp_utc", "total_timer_time",
}

var sessionsHeader = []string{
	"filename", "name", "sport", "sub_sport",
	"start_time_utc", "start_time_local", "timestamp",
	"start_position_lat", "start_position_lon",
	"avg_cadence", "max_cadence", "avg_heart_rate", "max_heart_rate",
	"avg_speed", "max_speed", "enhanced_avg_speed", "enhanced_max_speed",
	"avg_temperature", "max_temperature",
	"total_anaerobic_effect", "total_ascent", "total_calories",
	"total_descent", "total_distance", "total_elapsed_time",
	"total_timer_time", "total_training_effect",
}

var locationsHeader = []string{
	"name", "latitude", "longitude", "ele", "sym", "time", "src",
}

// AppendActivity appends one activity row to activities.csv.
func AppendActivity(dir string, a *model.Activity) error {
	row := []string{
		a.Filename,
		strCell(a.GarminProduct),
		timeCell(a.TimeCreated),
		strCell(a.Name),
		strconv.FormatInt(a.NumSessions, 10),
		strCell(a.Sport),
		strCell(a.SubSport),
		timeCell(a.TimestampLocal),
		timeCell(a.TimestampUTC),
		floatCell(a.TotalTimerTime),
	}
	return appendRows(filepath.Join(dir, ActivitiesFile), activitiesHeader, [][]string{row})
}

// AppendSessions appends one row per session to sessions.csv.
func AppendSessions(dir string, sessions []*model.Session) error {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.Filename,
			strCell(s.Name),
			strCell(s.Sport),
			strCell(s.SubSport),
			timeCell(s.StartTimeUTC),
			timeCell(s.StartTimeLocal),
			timeCell(s.EndTimeUTC),
			floatCell(s.StartPositionLat),
			floatCell(s.StartPositionLon),
			intCell(s.AvgCadence),
			intCell(s.MaxCadence),
			intCell(s.AvgHeartRate),
			intCell(s.MaxHeartRate),
			floatCell(s.AvgSpeed),
			floatCell(s.MaxSpeed),
			floatCell(s.EnhancedAvgSpeed),
			floatCell(s.EnhancedMaxSpeed),
			intCell(s.AvgTemperature),
			intCell(s.MaxTemperature),
			floatCell(s.TotalAnaerobicEffect),
			intCell(s.TotalAscent),
			intCell(s.TotalCalories),
			intCell(s.TotalDescent),
			floatCell(s.TotalDistance),
			floatCell(s.TotalElapsedTime),
			floatCell(s.TotalTimerTime),
			floatCell(s.TotalTrainingEffect),
		})
	}
	return appendRows(filepath.Join(dir, SessionsFile), sessionsHeader, rows)
}

// AppendLocations appends one row per waypoint to locations.csv.
func AppendLocations(dir string, locs []model.Location) error {
	rows := make([][]string, 0, len(locs))
	for _, loc := range locs {
		rows = append(rows, []string{
			strCell(loc.Name),
			floatCell(loc.Lat),
			floatCell(loc.Lon),
			floatCell(loc.Elevation),
			loc.Symbol,
			timeCell(loc.Timestamp),
			loc.Source,
		})
	}
	return appendRows(filepath.Join(dir, LocationsFile), locationsHeader, rows)
}

func appendRows(path string, header []string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat CSV file: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	if st.Size() == 0 {
		if _, err := f.WriteString(utf8BOM); err != nil {
			return fmt.Errorf("failed to write CSV preamble: %w", err)
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return nil
}

func strCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intCell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
