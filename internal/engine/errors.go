package engine

import "errors"

// The error taxonomy handled at the action boundary. The HTTP layer maps each
// to a response status; the engine never retries on its own.
var (
	ErrLockerNotFound    = errors.New("locker not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrLockerReserved    = errors.New("locker is reserved")
	ErrLockerOccupied    = errors.New("locker is occupied")
	ErrLockerNotOccupied = errors.New("locker is not occupied")
	ErrInvalidCode       = errors.New("invalid code")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrDoorNotClosed     = errors.New("door did not close in time")
	ErrHardware          = errors.New("hardware command failed")
)
