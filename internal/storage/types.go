package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLockerNotFound      = errors.New("locker not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderExists         = errors.New("order already exists")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// OrderStatus advances monotonically: deposited -> customer_deposited ->
// withdrawn. Withdrawn is terminal.
type OrderStatus string

const (
	StatusDeposited         OrderStatus = "deposited"
	StatusCustomerDeposited OrderStatus = "customer_deposited"
	StatusWithdrawn         OrderStatus = "withdrawn"
)

// Active reports whether an order still holds its credentials. Credentials of
// withdrawn orders may be reissued to future orders.
func (s OrderStatus) Active() bool {
	return s == StatusDeposited || s == StatusCustomerDeposited
}

// Locker is one physical compartment. Rows are created once at provisioning
// and never deleted; Occupied == (OrderID != nil) at all times. Reserved
// lockers are excluded from customer and operator flows.
type Locker struct {
	ID               int        `json:"id"`
	Occupied         bool       `json:"occupied"`
	DoorClosed       bool       `json:"door_closed"`
	OrderID          *int64     `json:"order_id,omitempty"`
	WithdrawPassword string     `json:"withdraw_password,omitempty"`
	Reserved         bool       `json:"reserved"`
	DeviceType       string     `json:"device_type"`
	RelayPin         int        `json:"relay_pin"`
	SensorPin        int        `json:"sensor_pin"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Order binds an externally supplied order id to one locker together with the
// credentials issued when the deposit was closed.
type Order struct {
	OrderID             int64       `json:"order_id"`
	LockerID            int         `json:"locker_id"`
	DepositCode         string      `json:"deposit_code"`
	WithdrawPassword    string      `json:"withdraw_password"`
	Status              OrderStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	CustomerDepositedAt *time.Time  `json:"customer_deposited_at,omitempty"`
	WithdrawnAt         *time.Time  `json:"withdrawn_at,omitempty"`
}

// TransactionEntry is one immutable line of the audit trail. Entries are only
// ever appended; Published tracks the fan-out to the transaction topic.
type TransactionEntry struct {
	ID               uuid.UUID  `json:"id"`
	LockerID         int        `json:"locker_id"`
	OrderID          *int64     `json:"order_id,omitempty"`
	Action           string     `json:"action"`
	DepositCode      string     `json:"deposit_code,omitempty"`
	WithdrawPassword string     `json:"withdraw_password,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
	Published        bool       `json:"published"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
}
