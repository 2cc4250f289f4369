package hardware

import (
	"fmt"
	"sync"
)

// MockMotorBank is an in-memory MotorBank for tests. It records the last
// throttle written per motor ID and counts frequency writes.
type MockMotorBank struct {
	mu sync.Mutex

	throttles  map[int]float64
	freqHz     int
	freqWrites int
	closed     bool

	// WriteErr, when set, is returned by every throttle write.
	WriteErr error
}

func NewMockMotorBank() *MockMotorBank {
	return &MockMotorBank{throttles: make(map[int]float64)}
}

func (b *MockMotorBank) Motor(id int) (Motor, error) {
	if id < 1 || id > 4 {
		return nil, fmt.Errorf("no motor bound to channel %d", id)
	}
	return &mockMotor{bank: b, id: id}, nil
}

func (b *MockMotorBank) SetFrequency(hz int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freqHz = hz
	b.freqWrites++
	return nil
}

func (b *MockMotorBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Throttle returns the last throttle written to a motor ID.
func (b *MockMotorBank) Throttle(id int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.throttles[id]
}

// FrequencyWrites reports how often the PWM frequency was programmed.
func (b *MockMotorBank) FrequencyWrites() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freqWrites
}

func (b *MockMotorBank) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type mockMotor struct {
	bank *MockMotorBank
	id   int
}

func (m *mockMotor) SetThrottle(throttle float64) error {
	m.bank.mu.Lock()
	defer m.bank.mu.Unlock()
	if m.bank.WriteErr != nil {
		return m.bank.WriteErr
	}
	if m.bank.closed {
		return fmt.Errorf("write to released motor bank")
	}
	m.bank.throttles[m.id] = throttle
	return nil
}

// MockSensor is a scripted DistanceSensor for tests. Each read pops the next
// value from Distances; when exhausted it repeats the last one. A non-nil
// Err makes every read fail instead.
type MockSensor struct {
	mu sync.Mutex

	Distances []float64
	Err       error

	calls int
}

func (s *MockSensor) ReadDistance() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return 0, s.Err
	}
	if len(s.Distances) == 0 {
		return 0, fmt.Errorf("mock sensor has no data")
	}
	d := s.Distances[0]
	if len(s.Distances) > 1 {
		s.Distances = s.Distances[1:]
	}
	return d, nil
}

// Calls reports how many reads were attempted.
func (s *MockSensor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
