package hardware

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	defaultReadTimeout = 2 * time.Second
	maxResponseLength  = 128
)

var errReadTimeout = errors.New("serial read timeout")

// Port is the slice of the serial device the driver needs. go.bug.st/serial
// ports satisfy it; tests substitute an in-memory implementation.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// Dialer opens a fresh connection to the controller.
type Dialer func() (Port, error)

// SerialDriver speaks the newline-terminated command protocol of the locker
// controller: OPEN:<id>, READ:<id>, PING, each answered by a single line.
// A failed exchange closes the port and is retried once on a fresh
// connection before the command is reported as failed.
type SerialDriver struct {
	mu          sync.Mutex
	dial        Dialer
	port        Port
	readTimeout time.Duration
	logger      *zap.SugaredLogger
}

// NewSerialDriver opens lazily on first command, so a service restart does
// not depend on the controller being up.
func NewSerialDriver(portName string, baudRate int) *SerialDriver {
	dial := func() (Port, error) {
		port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, err
		}
		// Opening the port resets the controller; give the bootloader time
		// to settle before the first command.
		time.Sleep(2 * time.Second)
		return port, nil
	}
	return newSerialDriver(dial)
}

func newSerialDriver(dial Dialer) *SerialDriver {
	return &SerialDriver{
		dial:        dial,
		readTimeout: defaultReadTimeout,
		logger:      zap.S().Named("serial"),
	}
}

func (d *SerialDriver) Open(lockerID int) bool {
	resp, err := d.send(fmt.Sprintf("OPEN:%d", lockerID))
	if err != nil {
		d.logger.Warnw("open command failed", "locker_id", lockerID, "error", err)
		return false
	}
	return resp == "OK"
}

func (d *SerialDriver) ReadDoorSensor(lockerID int) DoorState {
	resp, err := d.send(fmt.Sprintf("READ:%d", lockerID))
	if err != nil {
		d.logger.Warnw("sensor read failed", "locker_id", lockerID, "error", err)
		return DoorUnknown
	}
	switch strings.ToUpper(resp) {
	case "CLOSED":
		return DoorClosed
	case "OPEN":
		return DoorOpen
	default:
		return DoorUnknown
	}
}

func (d *SerialDriver) Ping() bool {
	resp, err := d.send("PING")
	return err == nil && resp == "OK"
}

// Status asks the controller for its self-test summary.
func (d *SerialDriver) Status() (string, error) {
	return d.send("STATUS")
}

func (d *SerialDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *SerialDriver) send(command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.exchangeLocked(command)
	if err == nil {
		return resp, nil
	}

	// One reconnect attempt: the controller may have been power-cycled.
	d.logger.Infow("reconnecting after failed exchange", "command", command, "error", err)
	if err := d.closeLocked(); err != nil {
		d.logger.Debugw("close before reconnect failed", "error", err)
	}

	resp, err = d.exchangeLocked(command)
	if err != nil {
		_ = d.closeLocked()
		return "", err
	}
	return resp, nil
}

func (d *SerialDriver) exchangeLocked(command string) (string, error) {
	if d.port == nil {
		port, err := d.dial()
		if err != nil {
			return "", fmt.Errorf("connect controller: %w", err)
		}
		if err := port.SetReadTimeout(d.readTimeout); err != nil {
			_ = port.Close()
			return "", fmt.Errorf("set read timeout: %w", err)
		}
		d.port = port
	}

	if _, err := d.port.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	line, err := d.readLineLocked()
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// readLineLocked reads up to the terminating newline. The port read timeout
// bounds each Read call, and the overall deadline bounds the whole line, so
// a chatty-but-never-terminating controller cannot wedge the driver.
func (d *SerialDriver) readLineLocked() (string, error) {
	deadline := time.Now().Add(d.readTimeout)
	buf := make([]byte, 0, 32)
	chunk := make([]byte, 1)

	for {
		n, err := d.port.Read(chunk)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// go.bug.st/serial signals a read timeout with n == 0, nil.
			return "", errReadTimeout
		}
		if chunk[0] == '\n' {
			return strings.TrimRight(string(buf), "\r"), nil
		}
		buf = append(buf, chunk[0])
		if len(buf) > maxResponseLength {
			return "", fmt.Errorf("response exceeds %d bytes", maxResponseLength)
		}
		if time.Now().After(deadline) {
			return "", errReadTimeout
		}
	}
}

func (d *SerialDriver) closeLocked() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}
