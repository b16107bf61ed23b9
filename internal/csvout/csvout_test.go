package csvout

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

func TestAppendActivityWritesBOMAndHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	a := &model.Activity{
		Filename:    "run.fit",
		Name:        ptrString("Morning Run"),
		NumSessions: 1,
		TimeCreated: ptrTime(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
	}

	if err := AppendActivity(dir, a); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := AppendActivity(dir, a); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ActivitiesFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, utf8BOM) {
		t.Error("file does not start with UTF-8 BOM")
	}
	if n := strings.Count(content, "filename;garmin_product"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "run.fit;;2024-06-01T08:00:00;Morning Run;1;") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestAppendSessions(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	sessions := []*model.Session{
		{
			Filename:      "run.fit",
			Sport:         ptrString("running"),
			StartTimeUTC:  &start,
			AvgHeartRate:  func() *int64 { v := int64(142); return &v }(),
			TotalDistance: ptrFloat(10250.12),
		},
		{Filename: "run.fit"},
	}

	if err := AppendSessions(dir, sessions); err != nil {
		t.Fatalf("AppendSessions: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, SessionsFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows", len(lines))
	}
	if cols := strings.Split(lines[1], ";"); len(cols) != len(sessionsHeader) {
		t.Errorf("row has %d columns, want %d", len(cols), len(sessionsHeader))
	}
	if !strings.Contains(lines[1], ";142;") {
		t.Errorf("row missing avg_heart_rate: %q", lines[1])
	}
	// Absent values stay empty, never zero.
	if strings.Contains(lines[2], ";0;") {
		t.Errorf("nil columns rendered as zero: %q", lines[2])
	}
}

func TestAppendLocations(t *testing.T) {
	dir := t.TempDir()
	locs := []model.Location{
		{
			Name:      ptrString("Summit cairn"),
			Lat:       ptrFloat(46.5),
			Lon:       ptrFloat(9.5),
			Elevation: ptrFloat(2500),
			Symbol:    "Summit",
			Source:    "Locations.fit 2024-06-01 08:00:00",
		},
	}

	if err := AppendLocations(dir, locs); err != nil {
		t.Fatalf("AppendLocations: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, LocationsFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "Summit cairn;46.5;9.5;2500;Summit;;Locations.fit 2024-06-01 08:00:00") {
		t.Errorf("unexpected content: %q", string(data))
	}
}
