// Package hardware wraps the RaspTank's board-level devices: the PCA9685
// PWM chip driving the H-bridge motors over I2C, and the HC-SR04 ultrasonic
// rangefinder on GPIO.
package hardware

import (
	"fmt"
	"math"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// DefaultI2CAddr is the PCA9685 address on the RaspTank motor HAT. The chip
// default is 0x40 but the Adeept board straps it to 0x5f.
const DefaultI2CAddr = 0x5f

// DefaultFrequencyHz is the PWM frequency used for the DC motors.
const DefaultFrequencyHz = 50

// DefaultChannelPairs maps motor IDs 1-4 to their (IN1, IN2) PCA9685
// channels as wired on the board. Motor 1 is the right track, motor 2 the
// left track; 3 and 4 are expansion headers.
var DefaultChannelPairs = map[int][2]int{
	1: {15, 14},
	2: {12, 13},
	3: {11, 10},
	4: {8, 9},
}

// pwmTicks is the PCA9685 counter resolution per cycle.
const pwmTicks = 4095

// Motor is a single H-bridge DC motor channel. Throttle is normalized to
// [-1, 1]; the sign selects rotation direction and 0 brakes.
type Motor interface {
	SetThrottle(throttle float64) error
}

// MotorBank is the actuator side of the robot: addressable motor channels
// sharing one PWM chip.
type MotorBank interface {
	// Motor returns the channel for a motor ID (1-4).
	Motor(id int) (Motor, error)
	// SetFrequency reprograms the shared PWM frequency. The chip may be
	// shared with other duty-cycle consumers (e.g. a pan/tilt servo), so
	// callers re-assert the motor frequency before throttle writes.
	SetFrequency(hz int) error
	Close() error
}

// pwmChip is the subset of the PCA9685 driver the bank uses.
type pwmChip interface {
	SetPwm(channel int, onTime, offTime gpio.Duty) error
	SetPwmFreq(freq physic.Frequency) error
}

var hostOnce sync.Once

// initHost loads the periph host drivers exactly once per process.
func initHost() (err error) {
	hostOnce.Do(func() {
		_, err = host.Init()
	})
	return err
}

// PCA9685Bank drives the four H-bridge motors through a PCA9685.
type PCA9685Bank struct {
	chip   pwmChip
	bus    i2c.BusCloser
	motors map[int]*dcMotor
}

// BankConfig selects the I2C bus, chip address, PWM frequency and motor
// channel wiring for a PCA9685Bank.
type BankConfig struct {
	Bus          string // I2C bus name, empty for the first available
	Addr         uint16
	FrequencyHz  int
	ChannelPairs map[int][2]int
}

// OpenMotorBank opens the I2C bus, programs the PWM frequency and binds the
// motor channels. A failure here is fatal for motion control: callers must
// not issue motion commands afterward.
func OpenMotorBank(cfg BankConfig) (*PCA9685Bank, error) {
	if cfg.Addr == 0 {
		cfg.Addr = DefaultI2CAddr
	}
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = DefaultFrequencyHz
	}
	if cfg.ChannelPairs == nil {
		cfg.ChannelPairs = DefaultChannelPairs
	}

	if err := initHost(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}

	chip, err := pca9685.NewI2C(bus, cfg.Addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init pca9685 at 0x%02x: %w", cfg.Addr, err)
	}

	b := newBank(chip, cfg.ChannelPairs)
	b.bus = bus
	if err := b.SetFrequency(cfg.FrequencyHz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}
	return b, nil
}

// newBank binds motor channels on an already-initialized chip.
func newBank(chip pwmChip, pairs map[int][2]int) *PCA9685Bank {
	b := &PCA9685Bank{
		chip:   chip,
		motors: make(map[int]*dcMotor, len(pairs)),
	}
	for id, pair := range pairs {
		b.motors[id] = &dcMotor{chip: chip, in1: pair[0], in2: pair[1]}
	}
	return b
}

func (b *PCA9685Bank) Motor(id int) (Motor, error) {
	m, ok := b.motors[id]
	if !ok {
		return nil, fmt.Errorf("no motor bound to channel %d", id)
	}
	return m, nil
}

func (b *PCA9685Bank) SetFrequency(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("pwm frequency must be positive, got %d", hz)
	}
	return b.chip.SetPwmFreq(physic.Frequency(hz) * physic.Hertz)
}

// Close releases the I2C bus. The motor channels are unbound afterward.
func (b *PCA9685Bank) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}

// dcMotor is one H-bridge motor on a pair of PCA9685 channels, driven in
// slow-decay mode: the complementary pin is held full-on and the PWM is
// applied inverted on the driven pin, so current recirculates between drive
// pulses. This runs quieter and smoother at low speed than fast decay.
type dcMotor struct {
	chip     pwmChip
	in1, in2 int
}

func (m *dcMotor) SetThrottle(throttle float64) error {
	if math.IsNaN(throttle) {
		return fmt.Errorf("throttle is NaN")
	}
	if throttle > 1 {
		throttle = 1
	} else if throttle < -1 {
		throttle = -1
	}

	ticks := gpio.Duty(math.Round(math.Abs(throttle) * pwmTicks))
	var in1, in2 gpio.Duty
	switch {
	case throttle > 0:
		in1, in2 = pwmTicks, pwmTicks-ticks
	case throttle < 0:
		in1, in2 = pwmTicks-ticks, pwmTicks
	default:
		// Throttle 0 holds both pins high: a brake, not a coast.
		in1, in2 = pwmTicks, pwmTicks
	}

	if err := m.chip.SetPwm(m.in1, 0, in1); err != nil {
		return fmt.Errorf("write channel %d: %w", m.in1, err)
	}
	if err := m.chip.SetPwm(m.in2, 0, in2); err != nil {
		return fmt.Errorf("write channel %d: %w", m.in2, err)
	}
	return nil
}
