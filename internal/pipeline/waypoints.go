package pipeline

import (
	"fit-import/internal/fitmsg"
	"fit-import/internal/model"
	"fit-import/internal/units"
)

// symbolNames maps the device's waypoint symbol codes to GPX symbol names.
// Codes outside the table fall back to defaultSymbol.
var symbolNames = map[int64]string{
	4:   "Bank",
	7:   "Boat Ramp",
	11:  "Campground",
	12:  "Car",
	23:  "Crossing",
	52:  "Parking Area",
	54:  "Picnic Area",
	58:  "Residence",
	71:  "Summit",
	72:  "Swimming Area",
	81:  "Geocache",
	83:  "Flag, Blue",
	88:  "Beacon",
	126: "Food Source",
}

const defaultSymbol = "Flag, Blue"

// extractLocations classifies the location messages of a locations file into
// waypoint rows. The descriptor stamps every row's src column.
func extractLocations(src fitmsg.Source, descriptor string) []model.Location {
	msgs := src.Messages(fitmsg.KindLocation)
	locs := make([]model.Location, 0, len(msgs))
	for _, m := range msgs {
		loc := model.Location{
			Name:      fitmsg.String(m.Value("name")),
			Lat:       units.SemicirclesToDegrees(fitmsg.Float(m.Value("position_lat"))),
			Lon:       units.SemicirclesToDegrees(fitmsg.Float(m.Value("position_long"))),
			Elevation: units.DecodeAltitude(fitmsg.Float(m.Value("altitude"))),
			Timestamp: fitmsg.Time(m.Value("timestamp")),
			Symbol:    defaultSymbol,
			Source:    descriptor,
		}
		if code := fitmsg.Int(m.Value("symbol")); code != nil {
			if name, ok := symbolNames[*code]; ok {
				loc.Symbol = name
			}
		}
		locs = append(locs, loc)
	}
	return locs
}
