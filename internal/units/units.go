// Package units converts Garmin device-native encodings to SI-ish values.
package units

const semicirclesPerDegree = float64(1<<31) / 180

// SemicirclesToDegrees converts the 32-bit angular encoding Garmin devices
// store coordinates in. degrees = raw * 180 / 2^31. A nil input stays nil.
func SemicirclesToDegrees(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	deg := *raw / semicirclesPerDegree
	return &deg
}

// DecodeAltitude decodes the altitude code recorded by the barometric
// altimeter: meters = raw/5 - 500. This is a device-specific affine decode,
// lossy by design, not a unit conversion. A nil input stays nil.
func DecodeAltitude(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	m := *raw/5 - 500
	return &m
}
