// Package model holds the entity rows the import pipeline produces. Rows are
// append-only value structs; nullable columns are pointers so that decode
// misses propagate as SQL NULL / omitted XML rather than zero values.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Activity is one imported FIT file. Primary key is the source filename, so
// re-importing the same file is idempotent.
type Activity struct {
	Filename       string
	GarminProduct  *string
	TimeCreated    *time.Time
	Name           *string
	NumSessions    int64
	Sport          *string
	SubSport       *string
	TimestampLocal *time.Time
	TimestampUTC   *time.Time
	TotalTimerTime *float64
}

// Session is one contiguous recorded exercise segment. Primary key is the
// UTC start time; EndTimeUTC is the session's closing "timestamp" message
// field and bounds its trackpoint window.
type Session struct {
	Filename       string
	Name           *string
	Sport          *string
	SubSport       *string
	StartTimeUTC   *time.Time
	StartTimeLocal *time.Time
	EndTimeUTC     *time.Time

	StartPositionLat *float64
	StartPositionLon *float64

	AvgCadence       *int64
	MaxCadence       *int64
	AvgHeartRate     *int64
	MaxHeartRate     *int64
	AvgSpeed         *float64
	MaxSpeed         *float64
	EnhancedAvgSpeed *float64
	EnhancedMaxSpeed *float64
	AvgTemperature   *int64
	MaxTemperature   *int64

	TotalAnaerobicEffect *float64
	TotalAscent          *int64
	TotalCalories        *int64
	TotalDescent         *int64
	TotalDistance        *float64
	TotalElapsedTime     *float64
	TotalTimerTime       *float64
	TotalTrainingEffect  *float64

	// Synthesized marks the placeholder session created for corrupt files
	// that decode zero session messages.
	Synthesized bool
}

// Vertex is one lon/lat pair of a track geometry.
type Vertex struct {
	Lon float64
	Lat float64
}

// Track is the spatial representation of a Session, 1:1 by start time.
// Geometry accumulates as ordered vertices and is serialized once at write
// time.
type Track struct {
	StartTimeUTC *time.Time
	Name         *string
	Type         *string
	Comment      string
	Source       string
	Vertices     []Vertex
}

// LineString renders the accumulated vertices as the body of a WKT
// linestring: "lon lat, lon lat" with no trailing separator.
func (t *Track) LineString() string {
	parts := make([]string, 0, len(t.Vertices))
	for _, v := range t.Vertices {
		parts = append(parts, strconv.FormatFloat(v.Lon, 'f', -1, 64)+" "+strconv.FormatFloat(v.Lat, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}

// Trackpoint is one timestamped sample belonging to a Session. Primary key is
// the timestamp; StartTimeUTC is the owning session's key.
type Trackpoint struct {
	StartTimeUTC  *time.Time
	Timestamp     time.Time
	HeartRate     *float64
	Temperature   *float64
	Cadence       *float64
	Lat           *float64
	Lon           *float64
	Altitude      *float64
	Distance      *float64
	Speed         *float64
	VerticalSpeed *float64
}

// Location is a standalone saved point of interest from a locations file.
type Location struct {
	Name      *string
	Lat       *float64
	Lon       *float64
	Elevation *float64
	Symbol    string
	Timestamp *time.Time
	Comment   *string
	Source    string
}
