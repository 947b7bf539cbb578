package hardware

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort scripts the controller side of the line protocol.
type fakePort struct {
	responses map[string]string // command -> response line
	commands  []string
	pending   []byte
	failNext  bool
	closed    bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.failNext {
		p.failNext = false
		return 0, errors.New("broken pipe")
	}
	command := strings.TrimSuffix(string(b), "\n")
	p.commands = append(p.commands, command)
	if resp, ok := p.responses[command]; ok {
		p.pending = []byte(resp + "\n")
	} else {
		p.pending = nil
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.pending) == 0 {
		return 0, nil // timeout semantics of go.bug.st/serial
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error { return nil }

func newFakeDriver(port *fakePort) *SerialDriver {
	driver := newSerialDriver(func() (Port, error) { return port, nil })
	driver.readTimeout = 50 * time.Millisecond
	return driver
}

func TestSerialDriverOpen(t *testing.T) {
	port := &fakePort{responses: map[string]string{"OPEN:3": "OK"}}
	driver := newFakeDriver(port)

	assert.True(t, driver.Open(3))
	assert.Equal(t, []string{"OPEN:3"}, port.commands)
}

func TestSerialDriverOpenNegativeAck(t *testing.T) {
	port := &fakePort{responses: map[string]string{"OPEN:3": "ERR"}}
	driver := newFakeDriver(port)

	assert.False(t, driver.Open(3))
}

func TestSerialDriverReadSensor(t *testing.T) {
	port := &fakePort{responses: map[string]string{
		"READ:1": "CLOSED",
		"READ:2": "OPEN",
		"READ:3": "garbage",
	}}
	driver := newFakeDriver(port)

	assert.Equal(t, DoorClosed, driver.ReadDoorSensor(1))
	assert.Equal(t, DoorOpen, driver.ReadDoorSensor(2))
	assert.Equal(t, DoorUnknown, driver.ReadDoorSensor(3))
}

func TestSerialDriverTimeoutIsUnknown(t *testing.T) {
	// No scripted response: every read times out.
	port := &fakePort{responses: map[string]string{}}
	driver := newFakeDriver(port)

	assert.Equal(t, DoorUnknown, driver.ReadDoorSensor(9))
	assert.False(t, driver.Open(9))
	assert.False(t, driver.Ping())
}

func TestSerialDriverPing(t *testing.T) {
	port := &fakePort{responses: map[string]string{"PING": "OK"}}
	driver := newFakeDriver(port)

	assert.True(t, driver.Ping())
}

func TestSerialDriverStripsCarriageReturn(t *testing.T) {
	port := &fakePort{responses: map[string]string{"PING": "OK\r"}}
	driver := newFakeDriver(port)

	assert.True(t, driver.Ping())
}

func TestSerialDriverReconnectsOnce(t *testing.T) {
	first := &fakePort{responses: map[string]string{"PING": "OK"}, failNext: true}
	second := &fakePort{responses: map[string]string{"PING": "OK"}}

	dials := 0
	driver := newSerialDriver(func() (Port, error) {
		dials++
		if dials == 1 {
			return first, nil
		}
		return second, nil
	})
	driver.readTimeout = 50 * time.Millisecond

	// First exchange fails on write, the driver reconnects and retries once.
	assert.True(t, driver.Ping())
	assert.Equal(t, 2, dials)
	assert.True(t, first.closed)
}

func TestSerialDriverGivesUpAfterOneReconnect(t *testing.T) {
	dials := 0
	driver := newSerialDriver(func() (Port, error) {
		dials++
		return &fakePort{failNext: true}, nil
	})
	driver.readTimeout = 50 * time.Millisecond

	assert.False(t, driver.Ping())
	require.Equal(t, 2, dials, "exactly one reconnect attempt per command")
}
