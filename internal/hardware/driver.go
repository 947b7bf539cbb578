//go:generate mockgen -source ./driver.go -destination=./mocks/driver.go -package=mock_hardware
package hardware

// DoorState is one sensor observation. Unknown means the reading could not be
// trusted (communication failure, malformed reply) and must never be treated
// as closed.
type DoorState int

const (
	DoorUnknown DoorState = iota
	DoorOpen
	DoorClosed
)

func (s DoorState) String() string {
	switch s {
	case DoorOpen:
		return "OPEN"
	case DoorClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Driver is the capability contract against the relay/sensor controller.
// Open returns true only on an explicit positive acknowledgment; callers must
// not assume the relay fired on false.
type Driver interface {
	Open(lockerID int) bool
	ReadDoorSensor(lockerID int) DoorState
	Ping() bool
}
