package robot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreapede/adeept-rasptank2/pkg/drive"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.EqualValues(t, 0x5f, cfg.Motors.I2CAddr)
	assert.Equal(t, 50, cfg.Motors.FrequencyHz)
	assert.Len(t, cfg.Motors.Trims, 4)
	assert.Equal(t, "GPIO23", cfg.Ultrasonic.TriggerPin)
	assert.Equal(t, "GPIO24", cfg.Ultrasonic.EchoPin)
	assert.Greater(t, cfg.Ultrasonic.RateHz, 0.0)
	assert.Greater(t, cfg.Ultrasonic.WarningCm, cfg.Ultrasonic.CriticalCm)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rasptank.json")

	cfg := DefaultConfig()
	cfg.Motors.I2CBus = "/dev/i2c-1"
	cfg.Motors.Trims[drive.RightMotor] = drive.Trim{Direction: -1, Offset: 3}
	cfg.Ultrasonic.RateHz = 12.5

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigFrom_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
