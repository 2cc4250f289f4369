// Package ultrasound runs a background polling loop over the distance
// sensor and pushes readings to a registered callback, so the control layer
// gets live ranging data without blocking on hardware I/O.
package ultrasound

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
)

// ErrorDistance is the sentinel returned by GetSingleReading when the
// sensor fails. Valid readings are always >= 0.
const ErrorDistance = -1

// DefaultRateHz is the continuous sampling rate used when the caller has no
// preference.
const DefaultRateHz = 10

const (
	// idleInterval is how often the loop re-checks its flags while
	// continuous sampling is disabled.
	idleInterval = 100 * time.Millisecond
	// failureBackoff slows the loop down after a failed read so a flaky
	// sensor is not hot-polled.
	failureBackoff = time.Second
)

// ErrStopped is returned by StartContinuous after Stop: a monitor instance
// cannot be restarted.
var ErrStopped = errors.New("ultrasound: monitor is stopped")

// Reading is one distance sample. Distance is in centimeters, rounded to
// two decimals. Readings are immutable; the callback owns its copy.
type Reading struct {
	Distance  float64   `json:"distance"`
	Timestamp time.Time `json:"timestamp"`
}

// Callback receives readings on the monitor's own goroutine. Handlers must
// not block: a slow consumer stalls the sampling loop and should hand work
// off to its own goroutine or channel.
type Callback func(Reading)

// Monitor polls a distance sensor on a dedicated background goroutine.
//
// Lifecycle: Created -> Running(idle <-> sampling) -> Stopped. The goroutine
// is launched by the first StartContinuous and exits on Stop; Stopped is
// terminal for the instance. StopContinuous only pauses sampling, leaving
// the goroutine idling on its flag.
type Monitor struct {
	sensor hardware.DistanceSensor

	mu           sync.Mutex
	callback     Callback
	running      bool
	continuous   bool
	stopped      bool
	rateHz       float64
	lastDistance float64

	done chan struct{}
}

// NewMonitor wraps a sensor. No goroutine runs until StartContinuous.
func NewMonitor(sensor hardware.DistanceSensor) *Monitor {
	return &Monitor{
		sensor: sensor,
		rateHz: DefaultRateHz,
		done:   make(chan struct{}),
	}
}

// SetCallback registers the delivery target. It may be changed at any time
// and takes effect on the next successful reading.
func (m *Monitor) SetCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

// StartContinuous enables continuous sampling at rateHz. The first call
// launches the background goroutine; later calls only update the rate.
func (m *Monitor) StartContinuous(rateHz float64) error {
	if rateHz <= 0 {
		return fmt.Errorf("ultrasound: rate must be positive, got %v", rateHz)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrStopped
	}

	m.rateHz = rateHz
	m.continuous = true
	if !m.running {
		m.running = true
		go m.loop()
	}
	return nil
}

// StopContinuous pauses sampling without terminating the goroutine. A
// reading already in flight still completes and may deliver one last
// callback after StopContinuous returns.
func (m *Monitor) StopContinuous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.continuous = false
}

// Stop terminates the monitor. The goroutine observes the flag within one
// polling interval and exits; the instance cannot be restarted afterward.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	m.continuous = false
	if !m.running {
		// The goroutine was never launched; nothing will close done.
		close(m.done)
		return
	}
	m.running = false
}

// Done is closed once the background goroutine has exited (or immediately
// on Stop if it never ran).
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// LastDistance returns the most recent successful reading, sticky across
// failures. Zero until the first success.
func (m *Monitor) LastDistance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDistance
}

// GetSingleReading performs one synchronous read outside the continuous
// loop. On failure it logs and returns ErrorDistance; it never propagates
// the error, and lastDistance keeps its previous value.
func (m *Monitor) GetSingleReading() float64 {
	d, err := m.readOnce()
	if err != nil {
		log.Printf("ultrasound: read failed: %v", err)
		return ErrorDistance
	}
	return d
}

// readOnce reads the sensor and, on success, records the rounded value as
// the last known distance.
func (m *Monitor) readOnce() (float64, error) {
	d, err := m.sensor.ReadDistance()
	if err != nil {
		return 0, err
	}
	d = math.Round(d*100) / 100

	m.mu.Lock()
	m.lastDistance = d
	m.mu.Unlock()
	return d, nil
}

func (m *Monitor) loop() {
	defer close(m.done)

	for {
		m.mu.Lock()
		running := m.running
		continuous := m.continuous
		rateHz := m.rateHz
		cb := m.callback
		m.mu.Unlock()

		if !running {
			return
		}
		if !continuous {
			time.Sleep(idleInterval)
			continue
		}

		d, err := m.readOnce()
		if err != nil {
			log.Printf("ultrasound: read failed: %v", err)
			time.Sleep(failureBackoff)
			continue
		}

		if cb != nil {
			cb(Reading{Distance: d, Timestamp: time.Now()})
		}
		time.Sleep(time.Duration(float64(time.Second) / rateHz))
	}
}
