package gpx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fit-import/internal/model"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(v float64) *float64    { return &v }
func ptrString(s string) *string     { return &s }

func TestWriteTracks(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	other := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sessions := []*model.Session{
		{StartTimeUTC: &start, Name: ptrString("Morning Run"), Sport: ptrString("running")},
		{StartTimeUTC: &other, Sport: ptrString("cycling")},
	}
	points := []model.Trackpoint{
		{
			StartTimeUTC: &start,
			Timestamp:    start.Add(time.Second),
			Lat:          ptrFloat(47.1),
			Lon:          ptrFloat(8.2),
			Altitude:     ptrFloat(471.5),
			Speed:        ptrFloat(3.123),
			HeartRate:    ptrFloat(142),
		},
		{
			StartTimeUTC: &start,
			Timestamp:    start.Add(2 * time.Second),
			HeartRate:    ptrFloat(143),
			Speed:        ptrFloat(3.2),
		},
		{StartTimeUTC: &other, Timestamp: other.Add(time.Second)},
	}

	n, err := WriteTracks(dir, sessions, points, "run.fit")
	if err != nil {
		t.Fatalf("WriteTracks: %v", err)
	}
	if n != 2 {
		t.Fatalf("wrote %d documents, want one per session", n)
	}

	data, err := os.ReadFile(filepath.Join(dir, "20240601T080000.gpx"))
	if err != nil {
		t.Fatalf("first document missing: %v", err)
	}
	doc := string(data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<name>Morning Run</name>`,
		`<type>running</type>`,
		`<src>run.fit</src>`,
		`<start_time_utc>2024-06-01T08:00:00</start_time_utc>`,
		`lat="47.1"`,
		`lon="8.2"`,
		`<ele>471.5</ele>`,
		`<speed>3.123</speed>`,
		`<heartrate>142</heartrate>`,
		`<time>2024-06-01T08:00:01</time>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %s", want)
		}
	}
	// The coordinate-free point keeps vitals but carries no speed.
	if strings.Contains(doc, "<speed>3.2</speed>") {
		t.Error("speed written for point without coordinates")
	}
	if !strings.Contains(doc, "<heartrate>143</heartrate>") {
		t.Error("heartrate missing for point without coordinates")
	}

	if _, err := os.Stat(filepath.Join(dir, "20240601T100000.gpx")); err != nil {
		t.Errorf("second document missing: %v", err)
	}
}

func TestWriteTracksSkipsSessionWithoutStart(t *testing.T) {
	dir := t.TempDir()
	n, err := WriteTracks(dir, []*model.Session{{}}, nil, "run.fit")
	if err != nil {
		t.Fatalf("WriteTracks: %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d documents, want 0 for session without start time", n)
	}
}

func TestWriteWaypoints(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	locs := []model.Location{
		{
			Name:      ptrString("Summit cairn"),
			Lat:       ptrFloat(46.5),
			Lon:       ptrFloat(9.5),
			Elevation: ptrFloat(2500),
			Symbol:    "Summit",
			Timestamp: &ts,
			Source:    "Locations.fit 2024-06-01 08:00:00",
		},
		{Symbol: "Flag, Blue", Source: "Locations.fit 2024-06-01 08:00:00"},
	}

	if err := WriteWaypoints(dir, locs); err != nil {
		t.Fatalf("WriteWaypoints: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, WaypointFile))
	if err != nil {
		t.Fatalf("waypoint document missing: %v", err)
	}
	doc := string(data)
	for _, want := range []string{
		`lat="46.5"`,
		`<name>Summit cairn</name>`,
		`<ele>2500</ele>`,
		`<sym>Summit</sym>`,
		`<src>Locations.fit 2024-06-01 08:00:00</src>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %s", want)
		}
	}

	// Overwrites rather than appends.
	if err := WriteWaypoints(dir, locs[:1]); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, WaypointFile))
	if n := strings.Count(string(data), "<wpt"); n != 1 {
		t.Errorf("rewritten document has %d waypoints, want 1", n)
	}
}
