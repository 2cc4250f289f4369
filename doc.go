// Package rasptank provides drive control and ultrasonic monitoring for the
// Adeept RaspTank, a tracked robot built around a Raspberry Pi, a PCA9685
// PWM motor board and an HC-SR04 rangefinder.
//
// # Usage
//
// First, run setup to configure the motor board and confirm wiring polarity:
//
//	rasptank setup
//
// Then drive the robot from the terminal:
//
//	rasptank drive
//
// or watch the rangefinder on its own:
//
//	rasptank monitor
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/rasptank: CLI with drive, monitor and setup commands
//   - pkg/hardware: PCA9685 motor bank and HC-SR04 drivers
//   - pkg/drive: differential-drive controller (tank, line and vision modes)
//   - pkg/ultrasound: background distance monitor
//   - pkg/robot: configuration and single-owner wiring of the above
package rasptank
