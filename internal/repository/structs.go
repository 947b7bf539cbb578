package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("not found")

type Locker struct {
	ID               int        `db:"id"`
	Occupied         bool       `db:"is_occupied"`
	DoorClosed       bool       `db:"door_closed"`
	OrderID          *int64     `db:"order_id"`
	WithdrawPassword *string    `db:"password"`
	Reserved         bool       `db:"reserved"`
	DeviceType       string     `db:"device_type"`
	RelayPin         int        `db:"relay_pin"`
	SensorPin        int        `db:"sensor_pin"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

type Order struct {
	OrderID             int64      `db:"order_id"`
	LockerID            int        `db:"locker_id"`
	DepositCode         string     `db:"deposit_code"`
	WithdrawPassword    string     `db:"withdraw_password"`
	Status              string     `db:"status"`
	CreatedAt           time.Time  `db:"created_at"`
	CustomerDepositedAt *time.Time `db:"customer_deposited_at"`
	WithdrawnAt         *time.Time `db:"withdrawn_at"`
}

type Transaction struct {
	ID               uuid.UUID  `db:"id"`
	LockerID         int        `db:"locker_id"`
	OrderID          *int64     `db:"order_id"`
	Action           string     `db:"action"`
	DepositCode      *string    `db:"deposit_code"`
	WithdrawPassword *string    `db:"withdraw_password"`
	Timestamp        time.Time  `db:"timestamp"`
	Published        bool       `db:"published"`
	PublishedAt      *time.Time `db:"published_at"`
}
