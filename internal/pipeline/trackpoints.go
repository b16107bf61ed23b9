package pipeline

import (
	"sort"

	"fit-import/internal/model"
)

// ElevationSource supplies terrain elevation for trackpoints whose record
// carried no usable altitude. A nil source skips the fallback.
type ElevationSource interface {
	Elevation(lat, lon float64) (float64, bool)
}

const trackComment = "created by fit-import"

// partition assigns classified records to their session windows and
// accumulates per-session track geometry. Records are sorted once by
// timestamp; each window is then located by binary search, so membership is
// start <= timestamp <= end without rescanning the whole slice per session.
//
// Synthesized sessions additionally adopt the first in-window coordinate as
// their start position and pull their sentinel end time back to the last
// timestamp actually seen.
func partition(sessions []*model.Session, records []recordRow, elev ElevationSource, srcName string) ([]*model.Track, []model.Trackpoint) {
	stamped := make([]recordRow, 0, len(records))
	for _, r := range records {
		if r.timestamp != nil {
			stamped = append(stamped, r)
		}
	}
	sort.SliceStable(stamped, func(i, j int) bool {
		return stamped[i].timestamp.Before(*stamped[j].timestamp)
	})

	var tracks []*model.Track
	var points []model.Trackpoint
	for _, s := range sessions {
		trk := &model.Track{
			StartTimeUTC: s.StartTimeUTC,
			Name:         s.Name,
			Type:         s.Sport,
			Comment:      trackComment,
			Source:       srcName,
		}
		tracks = append(tracks, trk)
		if s.StartTimeUTC == nil || s.EndTimeUTC == nil {
			continue
		}

		start, end := *s.StartTimeUTC, *s.EndTimeUTC
		lo := sort.Search(len(stamped), func(i int) bool {
			return !stamped[i].timestamp.Before(start)
		})
		for i := lo; i < len(stamped) && !stamped[i].timestamp.After(end); i++ {
			r := stamped[i]
			p := model.Trackpoint{
				StartTimeUTC:  s.StartTimeUTC,
				Timestamp:     *r.timestamp,
				HeartRate:     r.heartRate,
				Temperature:   r.temperature,
				Cadence:       r.cadence,
				Lat:           r.lat,
				Lon:           r.lon,
				Distance:      r.distance,
				Speed:         firstOf(r.speed, r.enhancedSpeed),
				VerticalSpeed: r.verticalSpeed,
				Altitude:      firstOf(r.altitude, r.enhancedAltitude),
			}
			if p.Altitude == nil && elev != nil && r.lat != nil && r.lon != nil {
				if ele, ok := elev.Elevation(*r.lat, *r.lon); ok {
					p.Altitude = &ele
				}
			}
			if r.lat != nil && r.lon != nil {
				trk.Vertices = append(trk.Vertices, model.Vertex{Lon: *r.lon, Lat: *r.lat})
				if s.Synthesized && s.StartPositionLat == nil && s.StartPositionLon == nil {
					s.StartPositionLat = r.lat
					s.StartPositionLon = r.lon
				}
			}
			if s.Synthesized {
				ts := *r.timestamp
				s.EndTimeUTC = &ts
			}
			points = append(points, p)
		}
	}
	return tracks, points
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
