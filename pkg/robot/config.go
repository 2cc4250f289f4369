// Package robot ties the RaspTank's hardware, drive controller and
// ultrasound monitor together behind a single explicitly-constructed owner.
package robot

import (
	"encoding/json"
	"os"

	"github.com/andreapede/adeept-rasptank2/pkg/drive"
	"github.com/andreapede/adeept-rasptank2/pkg/hardware"
)

const DefaultConfigFile = "rasptank.json"

// Config holds the robot configuration
type Config struct {
	Motors     MotorConfig      `json:"motors"`
	Ultrasonic UltrasonicConfig `json:"ultrasonic"`
}

// MotorConfig configures the PCA9685 motor bank and the drive trims.
type MotorConfig struct {
	I2CBus       string                       `json:"i2c_bus"`
	I2CAddr      uint16                       `json:"i2c_addr"`
	FrequencyHz  int                          `json:"frequency_hz"`
	DefaultSpeed int                          `json:"default_speed"`
	Trims        map[drive.Channel]drive.Trim `json:"trims"`
}

// UltrasonicConfig configures the HC-SR04 and the monitor defaults. The
// warning/critical thresholds are display hints for the monitor UI.
type UltrasonicConfig struct {
	TriggerPin string  `json:"trigger_pin"`
	EchoPin    string  `json:"echo_pin"`
	RateHz     float64 `json:"rate_hz"`
	WarningCm  float64 `json:"warning_cm"`
	CriticalCm float64 `json:"critical_cm"`
}

// DefaultConfig returns the stock RaspTank wiring.
func DefaultConfig() *Config {
	return &Config{
		Motors: MotorConfig{
			I2CAddr:      hardware.DefaultI2CAddr,
			FrequencyHz:  hardware.DefaultFrequencyHz,
			DefaultSpeed: drive.DefaultSpeed,
			Trims:        drive.DefaultTrims(),
		},
		Ultrasonic: UltrasonicConfig{
			TriggerPin: hardware.DefaultTriggerPin,
			EchoPin:    hardware.DefaultEchoPin,
			RateHz:     5,
			WarningCm:  30,
			CriticalCm: 15,
		},
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
