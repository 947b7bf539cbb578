package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.True(t, cfg.MockHardware)
	assert.Equal(t, 25*time.Second, cfg.DoorCloseTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.DoorPollInterval)
	assert.Equal(t, 6, cfg.DepositCodeLength)
	assert.Equal(t, map[int]bool{16: true}, cfg.ReservedLockers)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SMARTLOCKER_PORT", "8080")
	t.Setenv("SMARTLOCKER_DOOR_CLOSE_TIMEOUT", "3")
	t.Setenv("SMARTLOCKER_DOOR_POLL_INTERVAL", "0.25")
	t.Setenv("SMARTLOCKER_RESERVED_LOCKERS", "15,16")
	t.Setenv("SMARTLOCKER_MOCK", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.DoorCloseTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.DoorPollInterval)
	assert.Equal(t, map[int]bool{15: true, 16: true}, cfg.ReservedLockers)
	assert.False(t, cfg.MockHardware)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SMARTLOCKER_STORAGE", "redis")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadReservedList(t *testing.T) {
	t.Setenv("SMARTLOCKER_RESERVED_LOCKERS", "16,potato")

	_, err := Load()
	assert.Error(t, err)
}

func TestDevices(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	devices := cfg.Devices()
	require.Len(t, devices, 16)
	assert.Equal(t, 22, devices[0].RelayPin)
	assert.Equal(t, 23, devices[0].SensorPin)
	assert.False(t, devices[0].Reserved)
	assert.True(t, devices[15].Reserved)
}
