package hardware_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/hardware"
	mock_hardware "gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/hardware/mocks"
)

type recordingSink struct {
	mu     sync.Mutex
	states []bool
}

func (s *recordingSink) SetDoorState(ctx context.Context, lockerID int, closed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, closed)
	return nil
}

func (s *recordingSink) all() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.states...)
}

func TestWaitForClosedImmediate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := mock_hardware.NewMockDriver(ctrl)
	driver.EXPECT().ReadDoorSensor(3).Return(hardware.DoorClosed)

	sink := &recordingSink{}
	waiter := hardware.NewDoorWaiter(driver, sink, time.Second, 100*time.Millisecond)

	start := time.Now()
	assert.True(t, waiter.WaitForClosed(context.Background(), 3))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "already-closed door must not wait a poll interval")
	assert.Equal(t, []bool{true}, sink.all())
}

func TestWaitForClosedTimeoutBound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := mock_hardware.NewMockDriver(ctrl)
	driver.EXPECT().ReadDoorSensor(3).Return(hardware.DoorOpen).AnyTimes()

	const (
		timeout = 200 * time.Millisecond
		poll    = 50 * time.Millisecond
	)
	waiter := hardware.NewDoorWaiter(driver, &recordingSink{}, timeout, poll)

	start := time.Now()
	assert.False(t, waiter.WaitForClosed(context.Background(), 3))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+2*poll)
}

func TestWaitForClosedEventually(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := mock_hardware.NewMockDriver(ctrl)
	gomock.InOrder(
		driver.EXPECT().ReadDoorSensor(5).Return(hardware.DoorOpen),
		driver.EXPECT().ReadDoorSensor(5).Return(hardware.DoorUnknown),
		driver.EXPECT().ReadDoorSensor(5).Return(hardware.DoorClosed),
	)

	sink := &recordingSink{}
	waiter := hardware.NewDoorWaiter(driver, sink, time.Second, 10*time.Millisecond)

	assert.True(t, waiter.WaitForClosed(context.Background(), 5))
	// Every observation is written through, UNKNOWN as not-closed.
	assert.Equal(t, []bool{false, false, true}, sink.all())
}

func TestWaitForClosedUnknownNeverCountsAsClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := mock_hardware.NewMockDriver(ctrl)
	driver.EXPECT().ReadDoorSensor(4).Return(hardware.DoorUnknown).AnyTimes()

	waiter := hardware.NewDoorWaiter(driver, &recordingSink{}, 60*time.Millisecond, 20*time.Millisecond)
	assert.False(t, waiter.WaitForClosed(context.Background(), 4))
}

func TestWaitForClosedContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	driver := mock_hardware.NewMockDriver(ctrl)
	driver.EXPECT().ReadDoorSensor(2).Return(hardware.DoorOpen).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	waiter := hardware.NewDoorWaiter(driver, &recordingSink{}, time.Minute, 20*time.Millisecond)

	done := make(chan bool, 1)
	go func() { done <- waiter.WaitForClosed(ctx, 2) }()
	cancel()

	select {
	case closed := <-done:
		require.False(t, closed)
	case <-time.After(time.Second):
		t.Fatal("wait did not stop after context cancellation")
	}
}
