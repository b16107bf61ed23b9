package fitmsg

import (
	"testing"
	"time"
)

type sliceSource []Message

func (s sliceSource) Messages(kind string) []Message { return s }

func TestValueAbsentField(t *testing.T) {
	m := Message{Fields: []Field{{Name: "sport", Value: "running"}}}
	if got := m.Value("sport"); got != "running" {
		t.Errorf("Value(sport) = %v", got)
	}
	if got := m.Value("missing"); got != nil {
		t.Errorf("Value(missing) = %v, want nil", got)
	}
}

func TestJoinStrings(t *testing.T) {
	src := sliceSource{
		{Fields: []Field{{Name: "name", Value: "Swim"}}},
		{Fields: []Field{{Name: "other", Value: "x"}}},
		{Fields: []Field{{Name: "name", Value: "Bike"}}},
	}
	if got := JoinStrings(src, KindSport, "name", "_"); got != "Swim_Bike" {
		t.Errorf("JoinStrings = %q, want Swim_Bike", got)
	}
}

func TestFloatCoercion(t *testing.T) {
	for _, v := range []any{uint8(7), int16(7), uint32(7), int64(7), float32(7)} {
		f := Float(v)
		if f == nil || *f != 7 {
			t.Errorf("Float(%T) = %v, want 7", v, f)
		}
	}
	if Float("7") != nil {
		t.Error("Float(string) should be nil")
	}
	if Float(nil) != nil {
		t.Error("Float(nil) should be nil")
	}
}

func TestTimeRejectsZeroAndNonTime(t *testing.T) {
	if Time(time.Time{}) != nil {
		t.Error("zero time should yield nil")
	}
	if Time(42) != nil {
		t.Error("non-time should yield nil")
	}
	now := time.Now()
	if got := Time(now); got == nil || !got.Equal(now) {
		t.Errorf("Time = %v, want %v", got, now)
	}
}
