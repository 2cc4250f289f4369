// Package drive implements differential (tank) steering for the RaspTank's
// tracked chassis, with separate mixing modes for manual driving, line
// tracking and vision tracking.
package drive

// Channel identifies a motor position on the board (1-4, matching the
// H-bridge headers). The tank uses two; 3 and 4 are expansion headers.
type Channel int

const (
	RightMotor Channel = 1
	LeftMotor  Channel = 2
	AuxMotorA  Channel = 3
	AuxMotorB  Channel = 4
)

// DriveChannels returns the channels that move the chassis.
func DriveChannels() []Channel {
	return []Channel{RightMotor, LeftMotor}
}

// Direction is the requested travel direction.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "unknown"
}

// Turn selects the steering branch of a movement command.
type Turn int

const (
	Straight Turn = iota
	Left
	Right
)

func (t Turn) String() string {
	switch t {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "straight"
}

// Trim compensates for the physical build of a specific chassis.
// Direction (+1 or -1) corrects wiring polarity so positive throttle always
// means "track moves forward". Offset is a speed bias in percent points,
// added during line tracking to counter motor asymmetry.
type Trim struct {
	Direction int `json:"direction"`
	Offset    int `json:"offset"`
}

// DefaultTrims matches the stock RaspTank build: both tracks wired normally,
// left motor running slightly weak on the test chassis.
func DefaultTrims() map[Channel]Trim {
	return map[Channel]Trim{
		RightMotor: {Direction: 1, Offset: 0},
		LeftMotor:  {Direction: 1, Offset: 10},
		AuxMotorA:  {Direction: 1, Offset: 0},
		AuxMotorB:  {Direction: 1, Offset: 0},
	}
}

// Speed limits for movement commands, in percent.
const (
	MinSpeed     = 0
	MaxSpeed     = 100
	DefaultSpeed = 50
)

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// mapRange linearly maps v from [inMin, inMax] to [outMin, outMax].
func mapRange(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v-inMin)/(inMax-inMin)*(outMax-outMin) + outMin
}
