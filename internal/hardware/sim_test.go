package hardware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimDriverAutoRecloses(t *testing.T) {
	driver := NewSimDriver(20 * time.Millisecond)

	assert.Equal(t, DoorClosed, driver.ReadDoorSensor(3))
	assert.True(t, driver.Open(3))
	assert.Equal(t, DoorOpen, driver.ReadDoorSensor(3))

	assert.Eventually(t, func() bool {
		return driver.ReadDoorSensor(3) == DoorClosed
	}, time.Second, 5*time.Millisecond)
}

func TestSimDriverZeroDelayNeverRecloses(t *testing.T) {
	driver := NewSimDriver(0)

	assert.True(t, driver.Open(7))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, DoorOpen, driver.ReadDoorSensor(7))
}

func TestSimDriverTracksDoorsIndependently(t *testing.T) {
	driver := NewSimDriver(time.Minute)

	driver.Open(1)
	assert.Equal(t, DoorOpen, driver.ReadDoorSensor(1))
	assert.Equal(t, DoorClosed, driver.ReadDoorSensor(2))
}

func TestSimDriverPing(t *testing.T) {
	assert.True(t, NewSimDriver(0).Ping())
}
