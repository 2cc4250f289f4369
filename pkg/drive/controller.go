package drive

import (
	"errors"
	"fmt"
	"sync"

	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
)

// ErrNotReady is returned by motion commands after Shutdown (or if the
// controller was never handed a motor bank).
var ErrNotReady = errors.New("drive: motor bank is not bound")

// Config tunes a Controller for a specific chassis.
type Config struct {
	// FrequencyHz is the shared PWM frequency, re-asserted before every
	// throttle write. Defaults to hardware.DefaultFrequencyHz.
	FrequencyHz int
	// Trims per channel; defaults to DefaultTrims.
	Trims map[Channel]Trim
}

// Controller owns the drive motors and translates movement commands into
// per-channel throttle writes. Every motion call is a direct, synchronous
// hardware write on the caller's goroutine; an internal mutex serializes
// concurrent callers (e.g. a teleop loop and an autonomous tracker).
type Controller struct {
	mu     sync.Mutex
	bank   hardware.MotorBank
	motors map[Channel]hardware.Motor
	trims  map[Channel]Trim
	freqHz int
	ready  bool
}

// New binds the drive channels on an open motor bank and programs the PWM
// frequency. A failure here is fatal: the caller must not issue motion
// commands on the returned controller.
func New(bank hardware.MotorBank, cfg Config) (*Controller, error) {
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = hardware.DefaultFrequencyHz
	}
	if cfg.Trims == nil {
		cfg.Trims = DefaultTrims()
	}

	c := &Controller{
		bank:   bank,
		motors: make(map[Channel]hardware.Motor, 4),
		trims:  cfg.Trims,
		freqHz: cfg.FrequencyHz,
	}

	for ch := range cfg.Trims {
		m, err := bank.Motor(int(ch))
		if err != nil {
			return nil, fmt.Errorf("bind motor channel %d: %w", ch, err)
		}
		c.motors[ch] = m
	}

	if err := bank.SetFrequency(c.freqHz); err != nil {
		return nil, fmt.Errorf("program pwm frequency: %w", err)
	}

	c.ready = true
	return c, nil
}

// Move executes basic tank steering. Speed 0 stops all motors regardless of
// direction. Turning while moving forward pivots in place by
// counter-rotating the tracks. Turn is ignored when moving backward; the
// original chassis only ever turned while driving forward and that behavior
// is kept as-is.
func (c *Controller) Move(speed int, dir Direction, turn Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return ErrNotReady
	}
	if speed == 0 {
		return c.stopAllLocked()
	}

	s := float64(speed)
	switch {
	case dir == Forward && turn == Left:
		return c.write(
			throttle{RightMotor, -1, s},
			throttle{LeftMotor, +1, s},
		)
	case dir == Forward && turn == Right:
		return c.write(
			throttle{RightMotor, +1, s},
			throttle{LeftMotor, -1, s},
		)
	case dir == Forward:
		return c.write(
			throttle{RightMotor, +1, s},
			throttle{LeftMotor, +1, s},
		)
	case dir == Backward:
		return c.write(
			throttle{RightMotor, -1, s},
			throttle{LeftMotor, -1, s},
		)
	}
	return fmt.Errorf("drive: unknown direction %d", dir)
}

// TrackingMove is the line-following variant of Move. Each side's trim
// offset is added to the requested speed before clamping, and turns stop
// the inside track dead instead of counter-rotating it, pivoting the
// chassis around the stopped track. Turn is ignored when moving backward,
// same as Move.
func (c *Controller) TrackingMove(speed int, dir Direction, turn Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return ErrNotReady
	}
	if speed == 0 {
		return c.stopAllLocked()
	}

	right := float64(speed + c.trims[RightMotor].Offset)
	left := float64(speed + c.trims[LeftMotor].Offset)
	switch {
	case dir == Forward && turn == Left:
		return c.write(
			throttle{RightMotor, -1, right},
			throttle{LeftMotor, 0, 0}, // inside track: hard stop
		)
	case dir == Forward && turn == Right:
		return c.write(
			throttle{RightMotor, 0, 0}, // inside track: hard stop
			throttle{LeftMotor, -1, left},
		)
	case dir == Forward:
		return c.write(
			throttle{RightMotor, +1, right},
			throttle{LeftMotor, +1, left},
		)
	case dir == Backward:
		return c.write(
			throttle{RightMotor, -1, right},
			throttle{LeftMotor, -1, left},
		)
	}
	return fmt.Errorf("drive: unknown direction %d", dir)
}

// VisionTrackingMove produces smooth curves for continuous tracking input:
// the outer track runs at full speed while the inner track is scaled by
// radius. Radius 0 stops the inner track (sharp turn); radius 1 matches the
// outer track (straight). Straight and backward behave exactly like Move.
func (c *Controller) VisionTrackingMove(speed int, dir Direction, turn Turn, radius float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return ErrNotReady
	}
	if speed == 0 {
		return c.stopAllLocked()
	}

	radius = clamp(radius, 0, 1)
	s := float64(speed)
	switch {
	case dir == Forward && turn == Left:
		return c.write(
			throttle{RightMotor, -1, s},
			throttle{LeftMotor, +1, s * radius},
		)
	case dir == Forward && turn == Right:
		return c.write(
			throttle{RightMotor, +1, s * radius},
			throttle{LeftMotor, -1, s},
		)
	case dir == Forward:
		return c.write(
			throttle{RightMotor, +1, s},
			throttle{LeftMotor, +1, s},
		)
	case dir == Backward:
		return c.write(
			throttle{RightMotor, -1, s},
			throttle{LeftMotor, -1, s},
		)
	}
	return fmt.Errorf("drive: unknown direction %d", dir)
}

// StopAll zeroes the throttle on every bound channel. Safe to call at any
// time, including before New succeeded or after Shutdown: with no bound
// bank it is a no-op.
func (c *Controller) StopAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopAllLocked()
}

func (c *Controller) stopAllLocked() error {
	if !c.ready {
		return nil
	}
	var firstErr error
	for ch, m := range c.motors {
		if err := m.SetThrottle(0); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop motor %d: %w", ch, err)
		}
	}
	return firstErr
}

// Shutdown stops all motors and releases the motor bank. The channels are
// unbound afterward: any further motion command returns ErrNotReady.
// Shutdown is idempotent.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil
	}
	stopErr := c.stopAllLocked()
	c.ready = false
	if err := c.bank.Close(); err != nil {
		return fmt.Errorf("release motor bank: %w", err)
	}
	return stopErr
}

// throttle is one pending channel write: sign is the rotation direction
// relative to the channel's wiring (-1, 0 or +1), speed is in percent and
// clamped on write. Sign 0 is a hard stop.
type throttle struct {
	ch    Channel
	sign  int
	speed float64
}

// write applies the channel's trim polarity and flushes each throttle.
// Callers hold c.mu.
func (c *Controller) write(writes ...throttle) error {
	for _, w := range writes {
		if err := c.setThrottle(w.ch, w.sign*c.trims[w.ch].Direction, w.speed); err != nil {
			return err
		}
	}
	return nil
}

// setThrottle clamps speed to [0, 100], maps it linearly onto [0, 1],
// applies the direction sign and writes the result. The shared PWM
// frequency is re-asserted before the write: the chip also drives the
// camera servos and their writes can leave it at a different rate.
func (c *Controller) setThrottle(ch Channel, sign int, speed float64) error {
	m, ok := c.motors[ch]
	if !ok {
		return fmt.Errorf("drive: no motor bound to channel %d", ch)
	}

	speed = clamp(speed, MinSpeed, MaxSpeed)
	v := mapRange(speed, MinSpeed, MaxSpeed, 0, 1) * float64(sign)

	if err := c.bank.SetFrequency(c.freqHz); err != nil {
		return fmt.Errorf("assert pwm frequency: %w", err)
	}
	if err := m.SetThrottle(v); err != nil {
		return fmt.Errorf("motor %d: %w", ch, err)
	}
	return nil
}
