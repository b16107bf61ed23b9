// Package gpx renders activity sessions and waypoint collections as GPX 1.1
// documents, one document per session plus a single locations.gpx per
// waypoint batch.
package gpx

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fit-import/internal/metrics"
	"fit-import/internal/model"
)

const (
	xmlns       = "http://www.topografix.com/GPX/1/1"
	gpxVersion  = "1.1"
	creatorName = "fit-import"
	timeLayout  = "2006-01-02T15:04:05"
	fileLayout  = "20060102T150405"

	// WaypointFile is the fixed name of the waypoint document, overwritten
	// on every locations import.
	WaypointFile = "locations.gpx"
)

type trackDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Xmlns   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Trk     trk      `xml:"trk"`
}

type trk struct {
	Name       string `xml:"name"`
	Type       string `xml:"type"`
	Src        string `xml:"src"`
	Cmt        string `xml:"cmt"`
	Extensions trkExt `xml:"extensions"`
	Segment    trkseg `xml:"trkseg"`
}

type trkExt struct {
	StartTimeUTC string `xml:"start_time_utc"`
}

type trkseg struct {
	Points []trkpt `xml:"trkpt"`
}

type trkpt struct {
	Lat        string `xml:"lat,attr,omitempty"`
	Lon        string `xml:"lon,attr,omitempty"`
	Time       string `xml:"time"`
	Ele        string `xml:"ele,omitempty"`
	Extensions ptExt  `xml:"extensions"`
}

type ptExt struct {
	HeartRate     string `xml:"heartrate,omitempty"`
	Temperature   string `xml:"temperature,omitempty"`
	Cadence       string `xml:"cadence,omitempty"`
	Speed         string `xml:"speed,omitempty"`
	Distance      string `xml:"distance,omitempty"`
	VerticalSpeed string `xml:"vertical_speed,omitempty"`
}

type waypointDoc struct {
	XMLName   xml.Name `xml:"gpx"`
	Xmlns     string   `xml:"xmlns,attr"`
	Version   string   `xml:"version,attr"`
	Creator   string   `xml:"creator,attr"`
	Waypoints []wpt    `xml:"wpt"`
}

type wpt struct {
	Lat  string `xml:"lat,attr,omitempty"`
	Lon  string `xml:"lon,attr,omitempty"`
	Name string `xml:"name"`
	Ele  string `xml:"ele,omitempty"`
	Time string `xml:"time,omitempty"`
	Sym  string `xml:"sym"`
	Cmt  string `xml:"cmt,omitempty"`
	Src  string `xml:"src"`
}

// WriteTracks writes one GPX document per session into dir, named after the
// session start time. Sessions without a start time cannot be named and are
// skipped. Returns the number of documents written.
func WriteTracks(dir string, sessions []*model.Session, points []model.Trackpoint, srcName string) (int, error) {
	written := 0
	for _, s := range sessions {
		if s.StartTimeUTC == nil {
			continue
		}
		doc := trackDoc{
			Xmlns:   xmlns,
			Version: gpxVersion,
			Creator: creatorName,
			Trk: trk{
				Name:       strOrEmpty(s.Name),
				Type:       strOrEmpty(s.Sport),
				Src:        srcName,
				Cmt:        "created by " + creatorName,
				Extensions: trkExt{StartTimeUTC: s.StartTimeUTC.Format(timeLayout)},
			},
		}
		for _, p := range points {
			if p.StartTimeUTC == nil || !p.StartTimeUTC.Equal(*s.StartTimeUTC) {
				continue
			}
			doc.Trk.Segment.Points = append(doc.Trk.Segment.Points, renderPoint(p))
		}
		name := s.StartTimeUTC.Format(fileLayout) + ".gpx"
		if err := writeDoc(filepath.Join(dir, name), doc); err != nil {
			return written, err
		}
		metrics.GPXDocumentsTotal.Inc()
		written++
	}
	return written, nil
}

func renderPoint(p model.Trackpoint) trkpt {
	pt := trkpt{
		Time: p.Timestamp.Format(timeLayout),
		Extensions: ptExt{
			HeartRate:   floatOrEmpty(p.HeartRate),
			Temperature: floatOrEmpty(p.Temperature),
			Cadence:     floatOrEmpty(p.Cadence),
		},
	}
	if p.Lat != nil && p.Lon != nil {
		pt.Lat = formatFloat(*p.Lat)
		pt.Lon = formatFloat(*p.Lon)
		pt.Ele = floatOrEmpty(p.Altitude)
		pt.Extensions.Speed = floatOrEmpty(p.Speed)
		pt.Extensions.Distance = floatOrEmpty(p.Distance)
		pt.Extensions.VerticalSpeed = floatOrEmpty(p.VerticalSpeed)
	}
	return pt
}

// WriteWaypoints writes all locations into a single fixed-name document in
// dir, replacing any earlier version.
func WriteWaypoints(dir string, locs []model.Location) error {
	doc := waypointDoc{Xmlns: xmlns, Version: gpxVersion, Creator: creatorName}
	for _, loc := range locs {
		w := wpt{
			Name: strOrEmpty(loc.Name),
			Ele:  floatOrEmpty(loc.Elevation),
			Sym:  loc.Symbol,
			Cmt:  strOrEmpty(loc.Comment),
			Src:  loc.Source,
		}
		if loc.Lat != nil && loc.Lon != nil {
			w.Lat = formatFloat(*loc.Lat)
			w.Lon = formatFloat(*loc.Lon)
		}
		if loc.Timestamp != nil {
			w.Time = loc.Timestamp.UTC().Format(timeLayout)
		}
		doc.Waypoints = append(doc.Waypoints, w)
	}
	if err := writeDoc(filepath.Join(dir, WaypointFile), doc); err != nil {
		return err
	}
	metrics.GPXDocumentsTotal.Inc()
	return nil
}

func writeDoc(path string, doc any) error {
	data, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal GPX document: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write GPX document: %w", err)
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
