package hardware

import (
	"sync"
	"time"
)

// SimDriver models realistic door behavior for development without the
// controller: a door opens on command and falls shut again after a short
// delay, as if a customer used the locker.
type SimDriver struct {
	mu           sync.Mutex
	doorsOpen    map[int]bool
	recloseDelay time.Duration
}

func NewSimDriver(recloseDelay time.Duration) *SimDriver {
	return &SimDriver{
		doorsOpen:    make(map[int]bool),
		recloseDelay: recloseDelay,
	}
}

func (d *SimDriver) Open(lockerID int) bool {
	d.mu.Lock()
	d.doorsOpen[lockerID] = true
	d.mu.Unlock()

	// A non-positive delay models a door that never falls shut.
	if d.recloseDelay <= 0 {
		return true
	}

	time.AfterFunc(d.recloseDelay, func() {
		d.mu.Lock()
		d.doorsOpen[lockerID] = false
		d.mu.Unlock()
	})
	return true
}

func (d *SimDriver) ReadDoorSensor(lockerID int) DoorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doorsOpen[lockerID] {
		return DoorOpen
	}
	return DoorClosed
}

func (d *SimDriver) Ping() bool {
	return true
}

// HoldOpen pins a door open so tests can exercise the timeout path.
func (d *SimDriver) HoldOpen(lockerID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doorsOpen[lockerID] = true
}
