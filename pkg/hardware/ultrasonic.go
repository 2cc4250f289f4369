package hardware

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Plausible measurement window for the HC-SR04. Samples outside it are
// treated as read failures rather than data.
const (
	MinDistanceCm = 2.0
	MaxDistanceCm = 200.0
)

// speedOfSound in cm/s at room temperature. The echo travels out and back,
// so distance is half the round trip.
const speedOfSound = 34300.0

// DefaultEchoTimeout bounds a single ranging attempt. 200 cm of round trip
// is ~12 ms of echo; anything much longer is a lost pulse.
const DefaultEchoTimeout = 60 * time.Millisecond

// Default GPIO pins for the rangefinder on the RaspTank header.
const (
	DefaultTriggerPin = "GPIO23"
	DefaultEchoPin    = "GPIO24"
)

// DistanceSensor reads a single range sample in centimeters.
type DistanceSensor interface {
	ReadDistance() (float64, error)
}

// HCSR04 is an ultrasonic rangefinder on two GPIO pins. Reads block for the
// duration of the echo (millisecond scale) and are not safe for concurrent
// use; the ultrasound monitor serializes them on its own goroutine.
type HCSR04 struct {
	trig    gpio.PinOut
	echo    gpio.PinIn
	timeout time.Duration
}

// OpenHCSR04 binds the trigger and echo pins by name (e.g. "GPIO23").
func OpenHCSR04(trigPin, echoPin string) (*HCSR04, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	trig := gpioreg.ByName(trigPin)
	if trig == nil {
		return nil, fmt.Errorf("no such pin %q", trigPin)
	}
	echo := gpioreg.ByName(echoPin)
	if echo == nil {
		return nil, fmt.Errorf("no such pin %q", echoPin)
	}

	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure trigger pin: %w", err)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configure echo pin: %w", err)
	}

	return &HCSR04{trig: trig, echo: echo, timeout: DefaultEchoTimeout}, nil
}

// ReadDistance fires a 10 µs trigger pulse and times the echo.
func (s *HCSR04) ReadDistance() (float64, error) {
	if err := s.trig.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("raise trigger: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := s.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("lower trigger: %w", err)
	}

	// Rising edge starts the echo window, falling edge ends it.
	if !s.echo.WaitForEdge(s.timeout) {
		return 0, fmt.Errorf("echo did not start within %v", s.timeout)
	}
	start := time.Now()
	if !s.echo.WaitForEdge(s.timeout) {
		return 0, fmt.Errorf("echo did not end within %v", s.timeout)
	}
	elapsed := time.Since(start)

	cm := elapsed.Seconds() * speedOfSound / 2
	if cm < MinDistanceCm || cm > MaxDistanceCm {
		return 0, fmt.Errorf("reading %.1f cm outside %v-%v cm window", cm, MinDistanceCm, MaxDistanceCm)
	}
	return cm, nil
}
