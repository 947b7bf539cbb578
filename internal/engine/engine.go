package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/codes"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/hardware"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

// maxCodeAttempts bounds the redraw loop when a generated credential collides
// with one held by an active order.
const maxCodeAttempts = 5

type Storage interface {
	GetLocker(ctx context.Context, id int) (*storage.Locker, error)
	SetDoorState(ctx context.Context, id int, closed bool) error

	CreateOrderOccupyLocker(ctx context.Context, order storage.Order) error
	ReleaseLockerFinalizeOrder(ctx context.Context, lockerID int, orderID int64, withdrawnAt time.Time) error
	GetOrderByID(ctx context.Context, orderID int64) (*storage.Order, error)
	GetOrderByDepositCode(ctx context.Context, code string) (*storage.Order, error)
	GetOrderByWithdrawPassword(ctx context.Context, password string) (*storage.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status storage.OrderStatus, customerDepositedAt, withdrawnAt *time.Time) error

	AppendTransaction(ctx context.Context, entry storage.TransactionEntry) error
}

// Engine drives the deposit/withdraw lifecycle. It is the sole writer of
// locker and order state; every mutation for one locker id runs under that
// locker's mutex.
type Engine struct {
	storage Storage
	driver  hardware.Driver
	waiter  *hardware.DoorWaiter
	creds   *cache.CredentialIndex
	locks   *lockerLocks
	logger  *zap.SugaredLogger

	depositCodeLength  int
	withdrawCodeLength int

	generate func(length int) string
	timeNow  func() time.Time
}

type DepositReceipt struct {
	LockerID         int
	OrderID          int64
	DepositCode      string
	WithdrawPassword string
}

type CustomerDepositResult struct {
	LockerID   int
	DoorClosed bool
}

type CustomerWithdrawResult struct {
	LockerID int
	OrderID  int64
}

func New(st Storage, driver hardware.Driver, waiter *hardware.DoorWaiter, creds *cache.CredentialIndex, depositCodeLength, withdrawCodeLength int) *Engine {
	return &Engine{
		storage:            st,
		driver:             driver,
		waiter:             waiter,
		creds:              creds,
		locks:              newLockerLocks(),
		logger:             zap.S().Named("engine"),
		depositCodeLength:  depositCodeLength,
		withdrawCodeLength: withdrawCodeLength,
		generate:           codes.Generate,
		timeNow:            func() time.Time { return time.Now().UTC() },
	}
}

// OpenDeposit opens an available locker so the operator can place an item.
// No order exists yet at this point.
func (e *Engine) OpenDeposit(ctx context.Context, lockerID int) error {
	lock := e.locks.get(lockerID)
	lock.Lock()
	defer lock.Unlock()

	locker, err := e.operationalLocker(ctx, lockerID)
	if err != nil {
		return err
	}
	if locker.Occupied {
		return ErrLockerOccupied
	}

	if !e.driver.Open(lockerID) {
		metrics.OperationErrorsTotal.WithLabelValues("open_deposit").Inc()
		return ErrHardware
	}
	metrics.LockerOpensTotal.WithLabelValues("deposit").Inc()

	return e.logTransaction(ctx, lockerID, "open_deposit", nil, "", "")
}

// CloseDeposit confirms the door is shut, then atomically creates the order,
// issues both credentials and binds the locker. A door-wait timeout leaves no
// trace: no order, no occupancy change.
func (e *Engine) CloseDeposit(ctx context.Context, lockerID int, orderID int64) (*DepositReceipt, error) {
	lock := e.locks.get(lockerID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.operationalLocker(ctx, lockerID); err != nil {
		return nil, err
	}

	if !e.waiter.WaitForClosed(ctx, lockerID) {
		metrics.DoorWaitTimeoutsTotal.Inc()
		return nil, ErrDoorNotClosed
	}

	depositCode, withdrawPassword, err := e.issueCredentials(orderID)
	if err != nil {
		return nil, err
	}

	order := storage.Order{
		OrderID:          orderID,
		LockerID:         lockerID,
		DepositCode:      depositCode,
		WithdrawPassword: withdrawPassword,
		Status:           storage.StatusDeposited,
		CreatedAt:        e.timeNow(),
	}
	if err := e.storage.CreateOrderOccupyLocker(ctx, order); err != nil {
		e.creds.Release(depositCode, withdrawPassword)
		return nil, fmt.Errorf("bind order %d to locker %d: %w", orderID, lockerID, err)
	}

	metrics.DepositsTotal.Inc()
	metrics.OccupiedLockers.Inc()
	e.logger.Infow("deposit closed", "locker_id", lockerID, "order_id", orderID)

	if err := e.logTransaction(ctx, lockerID, "close_deposit", &orderID, depositCode, withdrawPassword); err != nil {
		return nil, err
	}

	return &DepositReceipt{
		LockerID:         lockerID,
		OrderID:          orderID,
		DepositCode:      depositCode,
		WithdrawPassword: withdrawPassword,
	}, nil
}

// CustomerDeposit handles the self-service drop-off: the customer enters the
// deposit code, the locker opens, and if the door is confirmed shut the order
// advances. If the door stays open the order is left unchanged so the
// customer can retry with the same code.
func (e *Engine) CustomerDeposit(ctx context.Context, depositCode string) (*CustomerDepositResult, error) {
	order, err := e.storage.GetOrderByDepositCode(ctx, depositCode)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("lookup deposit code: %w", err)
	}
	if order.Status != storage.StatusDeposited {
		// The code was already consumed by a completed drop-off.
		return nil, ErrInvalidCode
	}

	lock := e.locks.get(order.LockerID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.operationalLocker(ctx, order.LockerID); err != nil {
		return nil, err
	}

	if !e.driver.Open(order.LockerID) {
		metrics.OperationErrorsTotal.WithLabelValues("customer_deposit").Inc()
		return nil, ErrHardware
	}
	metrics.LockerOpensTotal.WithLabelValues("customer_deposit").Inc()

	closed := e.waiter.WaitForClosed(ctx, order.LockerID)
	if closed {
		now := e.timeNow()
		if err := e.storage.UpdateOrderStatus(ctx, order.OrderID, storage.StatusCustomerDeposited, &now, nil); err != nil {
			return nil, fmt.Errorf("advance order %d: %w", order.OrderID, err)
		}
	} else {
		metrics.DoorWaitTimeoutsTotal.Inc()
	}

	if err := e.logTransaction(ctx, order.LockerID, "customer_deposit", &order.OrderID, depositCode, ""); err != nil {
		return nil, err
	}

	return &CustomerDepositResult{LockerID: order.LockerID, DoorClosed: closed}, nil
}

// OpenWithdraw opens an occupied locker for the operator after checking the
// presented password belongs to the order bound to that locker.
func (e *Engine) OpenWithdraw(ctx context.Context, lockerID int, password string) (int64, error) {
	lock := e.locks.get(lockerID)
	lock.Lock()
	defer lock.Unlock()

	locker, err := e.operationalLocker(ctx, lockerID)
	if err != nil {
		return 0, err
	}
	if !locker.Occupied {
		return 0, ErrLockerNotOccupied
	}

	order, err := e.storage.GetOrderByWithdrawPassword(ctx, password)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return 0, ErrInvalidPassword
		}
		return 0, fmt.Errorf("lookup password: %w", err)
	}
	if order.LockerID != lockerID {
		return 0, ErrInvalidPassword
	}

	if !e.driver.Open(lockerID) {
		metrics.OperationErrorsTotal.WithLabelValues("open_withdraw").Inc()
		return 0, ErrHardware
	}
	metrics.LockerOpensTotal.WithLabelValues("withdraw").Inc()

	if err := e.logTransaction(ctx, lockerID, "open_withdraw", &order.OrderID, "", password); err != nil {
		return 0, err
	}
	return order.OrderID, nil
}

// CloseWithdraw confirms the emptied locker is shut, releases it and moves
// the order to its terminal status. The credentials become reusable for
// future orders only at this point.
func (e *Engine) CloseWithdraw(ctx context.Context, lockerID int, orderID int64) error {
	lock := e.locks.get(lockerID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.operationalLocker(ctx, lockerID); err != nil {
		return err
	}

	order, err := e.storage.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("lookup order %d: %w", orderID, err)
	}

	if !e.waiter.WaitForClosed(ctx, lockerID) {
		metrics.DoorWaitTimeoutsTotal.Inc()
		return ErrDoorNotClosed
	}

	if err := e.storage.ReleaseLockerFinalizeOrder(ctx, lockerID, orderID, e.timeNow()); err != nil {
		return fmt.Errorf("release locker %d for order %d: %w", lockerID, orderID, err)
	}
	e.creds.Release(order.DepositCode, order.WithdrawPassword)

	metrics.WithdrawalsTotal.Inc()
	metrics.OccupiedLockers.Dec()
	e.logger.Infow("withdraw closed", "locker_id", lockerID, "order_id", orderID)

	return e.logTransaction(ctx, lockerID, "close_withdraw", &orderID, "", "")
}

// CustomerWithdraw opens the locker for a customer presenting a valid
// password. Releasing the locker and finalizing the order happen on the
// operator's close-withdraw confirmation, not here.
func (e *Engine) CustomerWithdraw(ctx context.Context, password string) (*CustomerWithdrawResult, error) {
	order, err := e.storage.GetOrderByWithdrawPassword(ctx, password)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("lookup password: %w", err)
	}

	lock := e.locks.get(order.LockerID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.operationalLocker(ctx, order.LockerID); err != nil {
		return nil, err
	}

	if !e.driver.Open(order.LockerID) {
		metrics.OperationErrorsTotal.WithLabelValues("customer_withdraw").Inc()
		return nil, ErrHardware
	}
	metrics.LockerOpensTotal.WithLabelValues("customer_withdraw").Inc()

	if err := e.logTransaction(ctx, order.LockerID, "customer_withdraw", &order.OrderID, "", password); err != nil {
		return nil, err
	}
	return &CustomerWithdrawResult{LockerID: order.LockerID, OrderID: order.OrderID}, nil
}

// Health reports controller liveness.
func (e *Engine) Health(ctx context.Context) bool {
	return e.driver.Ping()
}

// operationalLocker rejects unknown and reserved lockers before any mutation
// is attempted.
func (e *Engine) operationalLocker(ctx context.Context, lockerID int) (*storage.Locker, error) {
	locker, err := e.storage.GetLocker(ctx, lockerID)
	if err != nil {
		if errors.Is(err, storage.ErrLockerNotFound) {
			return nil, ErrLockerNotFound
		}
		return nil, fmt.Errorf("get locker %d: %w", lockerID, err)
	}
	if locker.Reserved {
		return nil, ErrLockerReserved
	}
	return locker, nil
}

// issueCredentials draws codes until both are free of collisions with active
// orders. Reserve is atomic, so two concurrent deposits can never end up
// holding the same code.
func (e *Engine) issueCredentials(orderID int64) (string, string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		depositCode := e.generate(e.depositCodeLength)
		withdrawPassword := e.generate(e.withdrawCodeLength)
		if err := e.creds.Reserve(depositCode, withdrawPassword, orderID); err == nil {
			return depositCode, withdrawPassword, nil
		}
		e.logger.Warnw("credential collision, redrawing", "order_id", orderID, "attempt", attempt+1)
	}
	return "", "", fmt.Errorf("issue credentials for order %d: %w", orderID, cache.ErrCredentialTaken)
}

// logTransaction appends to the audit trail. A failed append is surfaced to
// the caller but the action it records is not rolled back.
func (e *Engine) logTransaction(ctx context.Context, lockerID int, action string, orderID *int64, depositCode, withdrawPassword string) error {
	entry := storage.TransactionEntry{
		ID:               uuid.New(),
		LockerID:         lockerID,
		OrderID:          orderID,
		Action:           action,
		DepositCode:      depositCode,
		WithdrawPassword: withdrawPassword,
		Timestamp:        e.timeNow(),
	}
	if err := e.storage.AppendTransaction(ctx, entry); err != nil {
		e.logger.Errorw("transaction append failed", "action", action, "locker_id", lockerID, "error", err)
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}
