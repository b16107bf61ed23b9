package pipeline

import (
	"math"
	"time"

	"fit-import/internal/fitmsg"
	"fit-import/internal/model"
	"fit-import/internal/units"
)

// classifyActivity builds the Activity row from the file_id, activity and
// sport messages. Multi-sport files (more than one session declared) get a
// combined name and underscore-joined sport fields, one constituent per
// sport message in file order.
func classifyActivity(src fitmsg.Source, filename string) *model.Activity {
	a := &model.Activity{Filename: filename}

	a.GarminProduct = fitmsg.String(fitmsg.First(src, fitmsg.KindFileID, "garmin_product"))
	a.TimeCreated = fitmsg.Time(fitmsg.First(src, fitmsg.KindFileID, "time_created"))
	a.TimestampUTC = fitmsg.Time(fitmsg.First(src, fitmsg.KindActivity, "timestamp"))
	a.TimestampLocal = fitmsg.Time(fitmsg.First(src, fitmsg.KindActivity, "local_timestamp"))
	a.TotalTimerTime = fitmsg.Float(fitmsg.First(src, fitmsg.KindActivity, "total_timer_time"))
	if n := fitmsg.Int(fitmsg.First(src, fitmsg.KindActivity, "num_sessions")); n != nil {
		a.NumSessions = *n
	}

	if a.NumSessions > 1 {
		a.Name = nonEmpty("Multisport_" + fitmsg.JoinStrings(src, fitmsg.KindSport, "name", "_"))
		a.Sport = nonEmpty(fitmsg.JoinStrings(src, fitmsg.KindSport, "sport", "_"))
		a.SubSport = nonEmpty(fitmsg.JoinStrings(src, fitmsg.KindSport, "sub_sport", "_"))
	} else {
		a.Name = fitmsg.String(fitmsg.First(src, fitmsg.KindSport, "name"))
		a.Sport = fitmsg.String(fitmsg.First(src, fitmsg.KindSport, "sport"))
		a.SubSport = fitmsg.String(fitmsg.First(src, fitmsg.KindSport, "sub_sport"))
	}
	return a
}

// sessionSetters is the static field-name dispatch for session messages.
// An unrecognized name is a lookup miss, not an error.
var sessionSetters = map[string]func(*model.Session, any){
	"name":                            func(s *model.Session, v any) { s.Name = fitmsg.String(v) },
	"sport":                           func(s *model.Session, v any) { s.Sport = fitmsg.String(v) },
	"sub_sport":                       func(s *model.Session, v any) { s.SubSport = fitmsg.String(v) },
	"start_time":                      func(s *model.Session, v any) { s.StartTimeUTC = fitmsg.Time(v) },
	"timestamp":                       func(s *model.Session, v any) { s.EndTimeUTC = fitmsg.Time(v) },
	"start_position_lat":              func(s *model.Session, v any) { s.StartPositionLat = units.SemicirclesToDegrees(fitmsg.Float(v)) },
	"start_position_long":             func(s *model.Session, v any) { s.StartPositionLon = units.SemicirclesToDegrees(fitmsg.Float(v)) },
	"avg_cadence":                     func(s *model.Session, v any) { s.AvgCadence = fitmsg.Int(v) },
	"max_cadence":                     func(s *model.Session, v any) { s.MaxCadence = fitmsg.Int(v) },
	"avg_heart_rate":                  func(s *model.Session, v any) { s.AvgHeartRate = fitmsg.Int(v) },
	"max_heart_rate":                  func(s *model.Session, v any) { s.MaxHeartRate = fitmsg.Int(v) },
	"avg_speed":                       func(s *model.Session, v any) { s.AvgSpeed = fitmsg.Float(v) },
	"max_speed":                       func(s *model.Session, v any) { s.MaxSpeed = fitmsg.Float(v) },
	"enhanced_avg_speed":              func(s *model.Session, v any) { s.EnhancedAvgSpeed = fitmsg.Float(v) },
	"enhanced_max_speed":              func(s *model.Session, v any) { s.EnhancedMaxSpeed = fitmsg.Float(v) },
	"avg_temperature":                 func(s *model.Session, v any) { s.AvgTemperature = fitmsg.Int(v) },
	"max_temperature":                 func(s *model.Session, v any) { s.MaxTemperature = fitmsg.Int(v) },
	"total_anaerobic_training_effect": func(s *model.Session, v any) { s.TotalAnaerobicEffect = fitmsg.Float(v) },
	"total_training_effect":           func(s *model.Session, v any) { s.TotalTrainingEffect = fitmsg.Float(v) },
	"total_ascent":                    func(s *model.Session, v any) { s.TotalAscent = fitmsg.Int(v) },
	"total_descent":                   func(s *model.Session, v any) { s.TotalDescent = fitmsg.Int(v) },
	"total_calories":                  func(s *model.Session, v any) { s.TotalCalories = fitmsg.Int(v) },
	"total_distance":                  func(s *model.Session, v any) { s.TotalDistance = fitmsg.Float(v) },
	"total_elapsed_time":              func(s *model.Session, v any) { s.TotalElapsedTime = fitmsg.Float(v) },
	"total_timer_time":                func(s *model.Session, v any) { s.TotalTimerTime = fitmsg.Float(v) },
}

func classifySessions(src fitmsg.Source, filename string) []*model.Session {
	var sessions []*model.Session
	for _, m := range src.Messages(fitmsg.KindSession) {
		s := &model.Session{Filename: filename}
		for _, f := range m.Fields {
			if set, ok := sessionSetters[f.Name]; ok {
				set(s, f.Value)
			}
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// recordRow is one classified record message before session assignment.
type recordRow struct {
	timestamp        *time.Time
	lat              *float64
	lon              *float64
	altitude         *float64
	enhancedAltitude *float64
	speed            *float64
	enhancedSpeed    *float64
	heartRate        *float64
	temperature      *float64
	cadence          *float64
	distance         *float64
	verticalSpeed    *float64
}

// recordSetters is the static field-name dispatch for record messages.
// Numeric columns go through fitmsg.Float, so a non-numeric value is
// discarded rather than coerced. Coordinates and altitudes arrive raw from
// the decoder and are converted here.
var recordSetters = map[string]func(*recordRow, any){
	"timestamp":         func(r *recordRow, v any) { r.timestamp = fitmsg.Time(v) },
	"position_lat":      func(r *recordRow, v any) { r.lat = round(units.SemicirclesToDegrees(fitmsg.Float(v)), 10) },
	"position_long":     func(r *recordRow, v any) { r.lon = round(units.SemicirclesToDegrees(fitmsg.Float(v)), 10) },
	"altitude":          func(r *recordRow, v any) { r.altitude = round(units.DecodeAltitude(fitmsg.Float(v)), 1) },
	"enhanced_altitude": func(r *recordRow, v any) { r.enhancedAltitude = round(units.DecodeAltitude(fitmsg.Float(v)), 1) },
	"speed":             func(r *recordRow, v any) { r.speed = round(fitmsg.Float(v), 3) },
	"enhanced_speed":    func(r *recordRow, v any) { r.enhancedSpeed = round(fitmsg.Float(v), 3) },
	"heart_rate":        func(r *recordRow, v any) { r.heartRate = round(fitmsg.Float(v), 0) },
	"temperature":       func(r *recordRow, v any) { r.temperature = fitmsg.Float(v) },
	"cadence":           func(r *recordRow, v any) { r.cadence = fitmsg.Float(v) },
	"distance":          func(r *recordRow, v any) { r.distance = fitmsg.Float(v) },
	"vertical_speed":    func(r *recordRow, v any) { r.verticalSpeed = fitmsg.Float(v) },
}

func classifyRecords(src fitmsg.Source) []recordRow {
	msgs := src.Messages(fitmsg.KindRecord)
	rows := make([]recordRow, 0, len(msgs))
	for _, m := range msgs {
		var r recordRow
		for _, f := range m.Fields {
			if set, ok := recordSetters[f.Name]; ok {
				set(&r, f.Value)
			}
		}
		rows = append(rows, r)
	}
	return rows
}

func round(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	pow := math.Pow(10, float64(decimals))
	r := math.Round(*v*pow) / pow
	return &r
}

func nonEmpty(s string) *string {
	if s == "" || s == "Multisport_" {
		return nil
	}
	return &s
}
