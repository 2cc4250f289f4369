package robot

import (
	"fmt"

	"github.com/andreapede/adeept-rasptank2/pkg/drive"
	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
	"github.com/andreapede/adeept-rasptank2/pkg/ultrasound"
)

// Robot is the single owner of the RaspTank hardware. There is exactly one
// instance per process, constructed by the outer control layer and passed
// by reference into whatever consumes it.
type Robot struct {
	Drive *drive.Controller
	Sonar *ultrasound.Monitor
}

// Open acquires the motor bank and rangefinder and wires up the controller
// and monitor. A failure is fatal for startup: nothing is left running.
func Open(cfg *Config) (*Robot, error) {
	bank, err := hardware.OpenMotorBank(hardware.BankConfig{
		Bus:         cfg.Motors.I2CBus,
		Addr:        cfg.Motors.I2CAddr,
		FrequencyHz: cfg.Motors.FrequencyHz,
	})
	if err != nil {
		return nil, fmt.Errorf("open motor bank: %w", err)
	}

	ctrl, err := drive.New(bank, drive.Config{
		FrequencyHz: cfg.Motors.FrequencyHz,
		Trims:       cfg.Motors.Trims,
	})
	if err != nil {
		bank.Close()
		return nil, fmt.Errorf("init drive controller: %w", err)
	}

	sensor, err := hardware.OpenHCSR04(cfg.Ultrasonic.TriggerPin, cfg.Ultrasonic.EchoPin)
	if err != nil {
		ctrl.Shutdown()
		return nil, fmt.Errorf("open rangefinder: %w", err)
	}

	return &Robot{
		Drive: ctrl,
		Sonar: ultrasound.NewMonitor(sensor),
	}, nil
}

// Close stops the monitor, stops the motors and releases the hardware.
func (r *Robot) Close() error {
	r.Sonar.Stop()
	return r.Drive.Shutdown()
}
