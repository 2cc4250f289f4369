package drive

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, expected float64
	}{
		{50, 0, 100, 50},
		{-10, 0, 100, 0},
		{150, 0, 100, 100},
		{0, 0, 100, 0},
		{100, 0, 100, 100},
		{0.5, 0, 1, 0.5},
		{-0.1, 0, 1, 0},
		{1.2, 0, 1, 1},
	}

	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.lo, tt.hi, got, tt.expected)
		}
	}
}

func TestMapRange(t *testing.T) {
	tests := []struct {
		v        float64
		expected float64
	}{
		{0, 0},
		{100, 1.0},
		{50, 0.5},
		{25, 0.25},
		{75, 0.75},
	}

	for _, tt := range tests {
		got := mapRange(tt.v, 0, 100, 0, 1)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("mapRange(%f, 0, 100, 0, 1) = %f, want %f", tt.v, got, tt.expected)
		}
	}
}

func TestDefaultTrims(t *testing.T) {
	trims := DefaultTrims()

	for _, ch := range []Channel{RightMotor, LeftMotor, AuxMotorA, AuxMotorB} {
		trim, ok := trims[ch]
		if !ok {
			t.Fatalf("no default trim for channel %d", ch)
		}
		if trim.Direction != 1 && trim.Direction != -1 {
			t.Errorf("channel %d direction = %d, want +1 or -1", ch, trim.Direction)
		}
	}

	if trims[LeftMotor].Offset != 10 {
		t.Errorf("left offset = %d, want 10 (stock chassis compensation)", trims[LeftMotor].Offset)
	}
	if trims[RightMotor].Offset != 0 {
		t.Errorf("right offset = %d, want 0", trims[RightMotor].Offset)
	}
}

func TestEnumStrings(t *testing.T) {
	if Forward.String() != "forward" || Backward.String() != "backward" {
		t.Error("Direction strings wrong")
	}
	if Left.String() != "left" || Right.String() != "right" || Straight.String() != "straight" {
		t.Error("Turn strings wrong")
	}
}
