package drive

import (
	"errors"
	"math"
	"testing"

	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
)

func newTestController(t *testing.T, trims map[Channel]Trim) (*Controller, *hardware.MockMotorBank) {
	t.Helper()
	bank := hardware.NewMockMotorBank()
	c, err := New(bank, Config{Trims: trims})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, bank
}

// flatTrims has no offsets and normal polarity on all channels.
func flatTrims() map[Channel]Trim {
	return map[Channel]Trim{
		RightMotor: {Direction: 1},
		LeftMotor:  {Direction: 1},
		AuxMotorA:  {Direction: 1},
		AuxMotorB:  {Direction: 1},
	}
}

func TestMove_ThrottleAlwaysInRange(t *testing.T) {
	c, bank := newTestController(t, nil) // default trims include offsets

	for speed := -20; speed <= 140; speed += 10 {
		for _, dir := range []Direction{Forward, Backward} {
			for _, turn := range []Turn{Straight, Left, Right} {
				if err := c.Move(speed, dir, turn); err != nil {
					t.Fatalf("Move(%d, %v, %v): %v", speed, dir, turn, err)
				}
				if err := c.TrackingMove(speed, dir, turn); err != nil {
					t.Fatalf("TrackingMove(%d, %v, %v): %v", speed, dir, turn, err)
				}
				if err := c.VisionTrackingMove(speed, dir, turn, 0.5); err != nil {
					t.Fatalf("VisionTrackingMove(%d, %v, %v): %v", speed, dir, turn, err)
				}
				for _, ch := range DriveChannels() {
					if v := bank.Throttle(int(ch)); v < -1 || v > 1 {
						t.Errorf("speed=%d dir=%v turn=%v: channel %d throttle %f out of range", speed, dir, turn, ch, v)
					}
				}
			}
		}
	}
}

func TestMove_ZeroSpeedStopsAll(t *testing.T) {
	c, bank := newTestController(t, nil)

	if err := c.Move(80, Forward, Straight); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := c.Move(0, Forward, Left); err != nil {
		t.Fatalf("Move(0): %v", err)
	}
	for id := 1; id <= 4; id++ {
		if v := bank.Throttle(id); v != 0 {
			t.Errorf("channel %d throttle = %f, want 0", id, v)
		}
	}
}

func TestMove_Mixing(t *testing.T) {
	tests := []struct {
		name        string
		dir         Direction
		turn        Turn
		right, left float64
	}{
		{"forward straight", Forward, Straight, 0.5, 0.5},
		{"forward left pivots", Forward, Left, -0.5, 0.5},
		{"forward right pivots", Forward, Right, 0.5, -0.5},
		{"backward straight", Backward, Straight, -0.5, -0.5},
		{"backward ignores left", Backward, Left, -0.5, -0.5},
		{"backward ignores right", Backward, Right, -0.5, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bank := newTestController(t, flatTrims())
			if err := c.Move(50, tt.dir, tt.turn); err != nil {
				t.Fatalf("Move: %v", err)
			}
			if got := bank.Throttle(int(RightMotor)); got != tt.right {
				t.Errorf("right throttle = %f, want %f", got, tt.right)
			}
			if got := bank.Throttle(int(LeftMotor)); got != tt.left {
				t.Errorf("left throttle = %f, want %f", got, tt.left)
			}
		})
	}
}

func TestMove_ClampsOverdrive(t *testing.T) {
	c, bank := newTestController(t, flatTrims())
	if err := c.Move(150, Forward, Straight); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := bank.Throttle(int(RightMotor)); got != 1.0 {
		t.Errorf("right throttle = %f, want 1.0", got)
	}
}

func TestMove_TrimPolarityFlipsSign(t *testing.T) {
	trims := flatTrims()
	trims[LeftMotor] = Trim{Direction: -1}
	c, bank := newTestController(t, trims)

	if err := c.Move(50, Forward, Straight); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := bank.Throttle(int(LeftMotor)); got != -0.5 {
		t.Errorf("left throttle = %f, want -0.5 (reversed wiring)", got)
	}
	if got := bank.Throttle(int(RightMotor)); got != 0.5 {
		t.Errorf("right throttle = %f, want 0.5", got)
	}
}

func TestTrackingMove_OffsetsAppliedPerSide(t *testing.T) {
	trims := flatTrims()
	trims[LeftMotor] = Trim{Direction: 1, Offset: 10}
	c, bank := newTestController(t, trims)

	if err := c.TrackingMove(50, Forward, Straight); err != nil {
		t.Fatalf("TrackingMove: %v", err)
	}
	if got := math.Abs(bank.Throttle(int(LeftMotor))); got != 0.60 {
		t.Errorf("left throttle magnitude = %f, want 0.60", got)
	}
	if got := math.Abs(bank.Throttle(int(RightMotor))); got != 0.50 {
		t.Errorf("right throttle magnitude = %f, want 0.50", got)
	}
}

func TestTrackingMove_TurnStopsInsideTrack(t *testing.T) {
	tests := []struct {
		name        string
		turn        Turn
		right, left float64
	}{
		{"left turn stops left track", Left, -0.5, 0},
		{"right turn stops right track", Right, 0, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bank := newTestController(t, flatTrims())
			if err := c.TrackingMove(50, Forward, tt.turn); err != nil {
				t.Fatalf("TrackingMove: %v", err)
			}
			if got := bank.Throttle(int(RightMotor)); got != tt.right {
				t.Errorf("right throttle = %f, want %f", got, tt.right)
			}
			if got := bank.Throttle(int(LeftMotor)); got != tt.left {
				t.Errorf("left throttle = %f, want %f", got, tt.left)
			}
		})
	}
}

func TestTrackingMove_BackwardAppliesOffsetsReversed(t *testing.T) {
	trims := flatTrims()
	trims[LeftMotor] = Trim{Direction: 1, Offset: 10}
	trims[RightMotor] = Trim{Direction: 1, Offset: 5}
	c, bank := newTestController(t, trims)

	// Turn must be ignored going backward.
	for _, turn := range []Turn{Straight, Left, Right} {
		if err := c.TrackingMove(50, Backward, turn); err != nil {
			t.Fatalf("TrackingMove: %v", err)
		}
		if got := bank.Throttle(int(LeftMotor)); got != -0.60 {
			t.Errorf("turn=%v: left throttle = %f, want -0.60", turn, got)
		}
		if got := bank.Throttle(int(RightMotor)); got != -0.55 {
			t.Errorf("turn=%v: right throttle = %f, want -0.55", turn, got)
		}
	}
}

func TestVisionTrackingMove_ProportionalCurve(t *testing.T) {
	c, bank := newTestController(t, flatTrims())

	if err := c.VisionTrackingMove(60, Forward, Left, 0.5); err != nil {
		t.Fatalf("VisionTrackingMove: %v", err)
	}
	// Left turn: right track is the outer (full speed), left the inner.
	if got := math.Abs(bank.Throttle(int(RightMotor))); got != 0.60 {
		t.Errorf("outer throttle magnitude = %f, want 0.60", got)
	}
	if got := math.Abs(bank.Throttle(int(LeftMotor))); got != 0.30 {
		t.Errorf("inner throttle magnitude = %f, want 0.30", got)
	}
}

func TestVisionTrackingMove_RadiusEdges(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		inner  float64
	}{
		{"radius 0 stops inner track", 0, 0},
		{"radius 1 runs straight", 1, 0.60},
		{"radius above 1 clamps", 1.7, 0.60},
		{"negative radius clamps", -0.3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bank := newTestController(t, flatTrims())
			if err := c.VisionTrackingMove(60, Forward, Right, tt.radius); err != nil {
				t.Fatalf("VisionTrackingMove: %v", err)
			}
			// Right turn: right track is the inner.
			if got := math.Abs(bank.Throttle(int(RightMotor))); got != tt.inner {
				t.Errorf("inner throttle magnitude = %f, want %f", got, tt.inner)
			}
		})
	}
}

func TestController_FrequencyReassertedPerWrite(t *testing.T) {
	c, bank := newTestController(t, flatTrims())

	before := bank.FrequencyWrites()
	if err := c.Move(50, Forward, Straight); err != nil {
		t.Fatalf("Move: %v", err)
	}
	// One frequency write per channel write (two drive channels).
	if got := bank.FrequencyWrites() - before; got != 2 {
		t.Errorf("frequency writes = %d, want 2", got)
	}
}

func TestController_Shutdown(t *testing.T) {
	c, bank := newTestController(t, flatTrims())

	if err := c.Move(50, Forward, Straight); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !bank.Closed() {
		t.Error("motor bank not released on shutdown")
	}
	for id := 1; id <= 4; id++ {
		if v := bank.Throttle(id); v != 0 {
			t.Errorf("channel %d throttle = %f after shutdown, want 0", id, v)
		}
	}

	// Motion commands must fail cleanly, never write to a released bank.
	if err := c.Move(50, Forward, Straight); !errors.Is(err, ErrNotReady) {
		t.Errorf("Move after shutdown = %v, want ErrNotReady", err)
	}
	if err := c.TrackingMove(50, Forward, Straight); !errors.Is(err, ErrNotReady) {
		t.Errorf("TrackingMove after shutdown = %v, want ErrNotReady", err)
	}
	if err := c.VisionTrackingMove(50, Forward, Straight, 0.5); !errors.Is(err, ErrNotReady) {
		t.Errorf("VisionTrackingMove after shutdown = %v, want ErrNotReady", err)
	}

	// StopAll stays safe and Shutdown stays idempotent.
	if err := c.StopAll(); err != nil {
		t.Errorf("StopAll after shutdown: %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestController_WriteErrorIsReported(t *testing.T) {
	bank := hardware.NewMockMotorBank()
	c, err := New(bank, Config{Trims: flatTrims()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bank.WriteErr = errors.New("bus fault")
	if err := c.Move(50, Forward, Straight); err == nil {
		t.Error("Move with failing bank returned nil, want error")
	}
}
