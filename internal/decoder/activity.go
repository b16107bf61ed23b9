package decoder

import (
	"bytes"
	"fmt"
	"time"

	"github.com/tormoder/fit"

	"fit-import/internal/fitmsg"
)

// Invalid sentinels per FIT base type. tormoder/fit leaves unset fields at
// these values rather than using pointers.
const (
	invUint8  = 0xFF
	invSint8  = 0x7F
	invUint16 = 0xFFFF
	invSint16 = 0x7FFF
	invUint32 = 0xFFFFFFFF
	invSint32 = 0x7FFFFFFF
)

// activitySource decodes an activity file with tormoder/fit and rebuilds the
// generic message stream. Coordinates are emitted as raw semicircles and
// altitudes as raw device codes; the classifier owns those conversions.
// Everything else is emitted at profile scale (speeds m/s, distances m,
// durations s).
func activitySource(data []byte) (*memorySource, error) {
	f, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode activity file: %w", err)
	}
	af, err := f.Activity()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity messages: %w", err)
	}

	msgs := make(map[string][]fitmsg.Message)

	var fid builder
	fid.add("type", uint8(f.FileId.Type))
	if p := f.FileId.GetProduct(); p != nil {
		fid.add("garmin_product", fmt.Sprint(p))
	}
	fid.addTime("time_created", f.FileId.TimeCreated)
	msgs[fitmsg.KindFileID] = append(msgs[fitmsg.KindFileID], fid.message())

	if af.Activity != nil {
		var act builder
		act.addU16("num_sessions", af.Activity.NumSessions)
		act.addTime("timestamp", af.Activity.Timestamp)
		act.addTime("local_timestamp", af.Activity.LocalTimestamp)
		act.addU32Scaled("total_timer_time", af.Activity.TotalTimerTime, 1000)
		msgs[fitmsg.KindActivity] = append(msgs[fitmsg.KindActivity], act.message())
	}

	for _, s := range af.Sessions {
		if s == nil {
			continue
		}

		// The activity profile carries no standalone sport message once
		// decoded; each session's sport stands in for it, which preserves
		// the per-constituent ordering multisport naming depends on.
		var sp builder
		sp.add("name", s.Sport.String())
		sp.add("sport", s.Sport.String())
		sp.add("sub_sport", s.SubSport.String())
		msgs[fitmsg.KindSport] = append(msgs[fitmsg.KindSport], sp.message())

		var b builder
		b.addTime("start_time", s.StartTime)
		b.addTime("timestamp", s.Timestamp)
		b.add("sport", s.Sport.String())
		b.add("sub_sport", s.SubSport.String())
		b.addCoord("start_position_lat", s.StartPositionLat.Semicircles())
		b.addCoord("start_position_long", s.StartPositionLong.Semicircles())
		b.addU8("avg_cadence", s.AvgCadence)
		b.addU8("max_cadence", s.MaxCadence)
		b.addU8("avg_heart_rate", s.AvgHeartRate)
		b.addU8("max_heart_rate", s.MaxHeartRate)
		b.addU16Scaled("avg_speed", s.AvgSpeed, 1000)
		b.addU16Scaled("max_speed", s.MaxSpeed, 1000)
		b.addU32Scaled("enhanced_avg_speed", s.EnhancedAvgSpeed, 1000)
		b.addU32Scaled("enhanced_max_speed", s.EnhancedMaxSpeed, 1000)
		b.addS8("avg_temperature", s.AvgTemperature)
		b.addS8("max_temperature", s.MaxTemperature)
		b.addU8Scaled("total_anaerobic_training_effect", s.TotalAnaerobicTrainingEffect, 10)
		b.addU8Scaled("total_training_effect", s.TotalTrainingEffect, 10)
		b.addU16("total_ascent", s.TotalAscent)
		b.addU16("total_descent", s.TotalDescent)
		b.addU16("total_calories", s.TotalCalories)
		b.addU32Scaled("total_distance", s.TotalDistance, 100)
		b.addU32Scaled("total_elapsed_time", s.TotalElapsedTime, 1000)
		b.addU32Scaled("total_timer_time", s.TotalTimerTime, 1000)
		msgs[fitmsg.KindSession] = append(msgs[fitmsg.KindSession], b.message())
	}

	for _, r := range af.Records {
		if r == nil {
			continue
		}
		var b builder
		b.addTime("timestamp", r.Timestamp)
		b.addCoord("position_lat", r.PositionLat.Semicircles())
		b.addCoord("position_long", r.PositionLong.Semicircles())
		b.addU16("altitude", r.Altitude)
		b.addU32("enhanced_altitude", r.EnhancedAltitude)
		b.addU16Scaled("speed", r.Speed, 1000)
		b.addU32Scaled("enhanced_speed", r.EnhancedSpeed, 1000)
		b.addU32Scaled("distance", r.Distance, 100)
		b.addU8("heart_rate", r.HeartRate)
		b.addU8("cadence", r.Cadence)
		b.addS8("temperature", r.Temperature)
		b.addS16Scaled("vertical_speed", r.VerticalSpeed, 1000)
		msgs[fitmsg.KindRecord] = append(msgs[fitmsg.KindRecord], b.message())
	}

	return &memorySource{msgs: msgs}, nil
}

func (b *builder) addTime(name string, t time.Time) {
	if t.IsZero() {
		return
	}
	b.add(name, t.UTC())
}

func (b *builder) addCoord(name string, semicircles int32) {
	if semicircles == invSint32 {
		return
	}
	b.add(name, semicircles)
}

func (b *builder) addU8(name string, v uint8) {
	if v == invUint8 {
		return
	}
	b.add(name, v)
}

func (b *builder) addU8Scaled(name string, v uint8, scale float64) {
	if v == invUint8 {
		return
	}
	b.add(name, float64(v)/scale)
}

func (b *builder) addS8(name string, v int8) {
	if v == invSint8 {
		return
	}
	b.add(name, v)
}

func (b *builder) addU16(name string, v uint16) {
	if v == invUint16 {
		return
	}
	b.add(name, v)
}

func (b *builder) addU16Scaled(name string, v uint16, scale float64) {
	if v == invUint16 {
		return
	}
	b.add(name, float64(v)/scale)
}

func (b *builder) addS16Scaled(name string, v int16, scale float64) {
	if v == invSint16 {
		return
	}
	b.add(name, float64(v)/scale)
}

func (b *builder) addU32(name string, v uint32) {
	if v == invUint32 {
		return
	}
	b.add(name, v)
}

func (b *builder) addU32Scaled(name string, v uint32, scale float64) {
	if v == invUint32 {
		return
	}
	b.add(name, float64(v)/scale)
}
