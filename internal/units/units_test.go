package units

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestSemicirclesToDegrees(t *testing.T) {
	t.Run("Zero", func(t *testing.T) {
		got := SemicirclesToDegrees(fp(0))
		if got == nil || *got != 0 {
			t.Fatalf("Expected 0, got %v", got)
		}
	})

	t.Run("HalfCircle", func(t *testing.T) {
		got := SemicirclesToDegrees(fp(math.Pow(2, 31)))
		if got == nil {
			t.Fatal("Expected value, got nil")
		}
		if math.Abs(*got-180) > 1e-9 {
			t.Errorf("Expected 180, got %v", *got)
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := math.Inf(-1)
		for _, raw := range []float64{-2147483648, -1073741824, -1, 0, 1, 1073741824, 2147483647} {
			got := SemicirclesToDegrees(fp(raw))
			if got == nil {
				t.Fatalf("Expected value for %v, got nil", raw)
			}
			if *got <= prev {
				t.Fatalf("Expected strictly increasing values, got %v after %v", *got, prev)
			}
			prev = *got
		}
	})

	t.Run("NilInput", func(t *testing.T) {
		if got := SemicirclesToDegrees(nil); got != nil {
			t.Errorf("Expected nil, got %v", *got)
		}
	})
}

func TestDecodeAltitude(t *testing.T) {
	t.Run("SeaLevel", func(t *testing.T) {
		got := DecodeAltitude(fp(2500))
		if got == nil || *got != 0 {
			t.Fatalf("Expected 0, got %v", got)
		}
	})

	t.Run("Known", func(t *testing.T) {
		got := DecodeAltitude(fp(5000))
		if got == nil || *got != 500 {
			t.Fatalf("Expected 500, got %v", got)
		}
	})

	t.Run("NilInput", func(t *testing.T) {
		if got := DecodeAltitude(nil); got != nil {
			t.Errorf("Expected nil, got %v", *got)
		}
	})
}
