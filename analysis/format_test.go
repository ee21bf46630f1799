package analysis

import (
	"math"
	"testing"
)

func TestFormatP(t *testing.T) {
	cases := []struct {
		p    float64
		want string
	}{
		{0.5, "0.5"},
		{0.0123456, "0.0123"},
		{0.0001, "0.0001"},
		{0.00009, "<0.0001"},
		{0, "<0.0001"},
	}
	for _, c := range cases {
		if got := FormatP(c.p); got != c.want {
			t.Errorf("FormatP(%v) = %q, want %q", c.p, got, c.want)
		}
	}
}

func TestFloatPtr(t *testing.T) {
	if FloatPtr(math.NaN(), 4) != nil {
		t.Error("NaN should map to nil")
	}
	if FloatPtr(math.Inf(1), 4) != nil {
		t.Error("+Inf should map to nil")
	}
	got := FloatPtr(1.23456, 4)
	if got == nil || *got != 1.2346 {
		t.Errorf("FloatPtr(1.23456) = %v, want 1.2346", got)
	}
}

func TestRound4(t *testing.T) {
	if got := Round4(1.23456); got != 1.2346 {
		t.Errorf("Round4(1.23456) = %v", got)
	}
	if got := Round4(-1.23454); got != -1.2345 {
		t.Errorf("Round4(-1.23454) = %v", got)
	}
	if got := Round4(3); got != 3 {
		t.Errorf("Round4(3) = %v", got)
	}
}
