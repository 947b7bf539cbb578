package hardware

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DoorStateSink receives every sensor observation so the registry's door
// state is never stale by more than one poll interval.
type DoorStateSink interface {
	SetDoorState(ctx context.Context, lockerID int, closed bool) error
}

// DoorWaiter is the bounded polling loop that confirms a door has physically
// closed. It is the only gate for issuing credentials and for close-confirm
// transitions.
type DoorWaiter struct {
	driver       Driver
	sink         DoorStateSink
	timeout      time.Duration
	pollInterval time.Duration
	logger       *zap.SugaredLogger
}

func NewDoorWaiter(driver Driver, sink DoorStateSink, timeout, pollInterval time.Duration) *DoorWaiter {
	return &DoorWaiter{
		driver:       driver,
		sink:         sink,
		timeout:      timeout,
		pollInterval: pollInterval,
		logger:       zap.S().Named("doorwait"),
	}
}

// WaitForClosed polls the sensor until it reports CLOSED or the timeout
// elapses. Unknown readings count as not-closed. The sensor is read before
// the first sleep, so an already-closed door returns true immediately. Only
// the calling goroutine blocks.
func (w *DoorWaiter) WaitForClosed(ctx context.Context, lockerID int) bool {
	deadline := time.Now().Add(w.timeout)

	for {
		state := w.driver.ReadDoorSensor(lockerID)
		closed := state == DoorClosed
		if err := w.sink.SetDoorState(ctx, lockerID, closed); err != nil {
			w.logger.Warnw("door state write-through failed", "locker_id", lockerID, "error", err)
		}
		if closed {
			return true
		}

		if time.Now().After(deadline) {
			w.logger.Infow("door did not close in time", "locker_id", lockerID, "timeout", w.timeout)
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.pollInterval):
		}
	}
}
