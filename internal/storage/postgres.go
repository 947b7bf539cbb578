package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository"
)

// PostgresStorage exposes the same surface as FileStorage on top of the pgx
// repositories. It is the backend for multi-process deployments.
type PostgresStorage struct {
	db              db.DB
	lockerRepo      LockerRepository
	orderRepo       OrderRepository
	transactionRepo TransactionRepository
}

type LockerRepository interface {
	Provision(ctx context.Context, lockers []*repository.Locker) error
	GetByID(ctx context.Context, id int) (*repository.Locker, error)
	GetAll(ctx context.Context) ([]*repository.Locker, error)
	SetOccupiedTx(ctx context.Context, tx db.Tx, id int, orderID int64, password string) error
	SetAvailableTx(ctx context.Context, tx db.Tx, id int) error
	SetDoorState(ctx context.Context, id int, closed bool) error
}

type OrderRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	GetByID(ctx context.Context, orderID int64) (*repository.Order, error)
	GetByDepositCode(ctx context.Context, code string) (*repository.Order, error)
	GetByWithdrawPassword(ctx context.Context, password string) (*repository.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error
	UpdateStatusTx(ctx context.Context, tx db.Tx, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error
	GetAllActive(ctx context.Context) ([]*repository.Order, error)
}

type TransactionRepository interface {
	Append(ctx context.Context, entry *repository.Transaction) error
	GetUnpublished(ctx context.Context, limit int) ([]*repository.Transaction, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
}

func NewPostgresStorage(db db.DB, lockerRepo LockerRepository, orderRepo OrderRepository, transactionRepo TransactionRepository) *PostgresStorage {
	return &PostgresStorage{
		db:              db,
		lockerRepo:      lockerRepo,
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
	}
}

// InitSchema creates the tables on first start.
func (s *PostgresStorage) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lockers (
            id INTEGER PRIMARY KEY,
            is_occupied BOOLEAN NOT NULL DEFAULT FALSE,
            door_closed BOOLEAN NOT NULL DEFAULT TRUE,
            password TEXT,
            order_id BIGINT,
            reserved BOOLEAN NOT NULL DEFAULT FALSE,
            device_type TEXT NOT NULL DEFAULT 'arduino_mega',
            relay_pin INTEGER NOT NULL DEFAULT 0,
            sensor_pin INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            order_id BIGINT PRIMARY KEY,
            locker_id INTEGER NOT NULL REFERENCES lockers(id),
            deposit_code TEXT NOT NULL,
            withdraw_password TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            customer_deposited_at TIMESTAMPTZ,
            withdrawn_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            locker_id INTEGER NOT NULL,
            order_id BIGINT,
            action TEXT NOT NULL,
            deposit_code TEXT,
            withdraw_password TEXT,
            timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            published BOOLEAN NOT NULL DEFAULT FALSE,
            published_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_deposit_code ON orders (deposit_code) WHERE status != 'withdrawn'`,
		`CREATE INDEX IF NOT EXISTS idx_orders_withdraw_password ON orders (withdraw_password) WHERE status != 'withdrawn'`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_unpublished ON transactions (timestamp) WHERE NOT published`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Provision(ctx context.Context, lockers []Locker) error {
	rows := make([]*repository.Locker, len(lockers))
	for i, l := range lockers {
		rows[i] = lockerToRepo(l)
	}
	if err := s.lockerRepo.Provision(ctx, rows); err != nil {
		return fmt.Errorf("provision lockers: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetLocker(ctx context.Context, id int) (*Locker, error) {
	row, err := s.lockerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrLockerNotFound
		}
		return nil, fmt.Errorf("get locker: %w", err)
	}
	locker := lockerFromRepo(row)
	return &locker, nil
}

func (s *PostgresStorage) ListLockers(ctx context.Context) ([]Locker, error) {
	rows, err := s.lockerRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lockers: %w", err)
	}
	lockers := make([]Locker, len(rows))
	for i, row := range rows {
		lockers[i] = lockerFromRepo(row)
	}
	return lockers, nil
}

// CreateOrderOccupyLocker runs the close-deposit commit point in one
// transaction: the order row and the locker binding land together or not at
// all.
func (s *PostgresStorage) CreateOrderOccupyLocker(ctx context.Context, order Order) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := s.orderRepo.CreateTx(ctx, tx, orderToRepo(order)); err != nil {
		if isUniqueViolation(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("create order: %w", err)
	}
	if err := s.lockerRepo.SetOccupiedTx(ctx, tx, order.LockerID, order.OrderID, order.WithdrawPassword); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrLockerNotFound
		}
		return fmt.Errorf("set locker occupied: %w", err)
	}
	return tx.Commit(ctx)
}

// ReleaseLockerFinalizeOrder commits the close-withdraw point: the locker is
// freed and the order reaches its terminal status in the same transaction.
func (s *PostgresStorage) ReleaseLockerFinalizeOrder(ctx context.Context, lockerID int, orderID int64, withdrawnAt time.Time) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := s.lockerRepo.SetAvailableTx(ctx, tx, lockerID); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrLockerNotFound
		}
		return fmt.Errorf("set locker available: %w", err)
	}
	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, string(StatusWithdrawn), nil, &withdrawnAt); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("finalize order: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) SetDoorState(ctx context.Context, id int, closed bool) error {
	if err := s.lockerRepo.SetDoorState(ctx, id, closed); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrLockerNotFound
		}
		return fmt.Errorf("set door state: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetOrderByID(ctx context.Context, orderID int64) (*Order, error) {
	return s.orderLookup(s.orderRepo.GetByID(ctx, orderID))
}

func (s *PostgresStorage) GetOrderByDepositCode(ctx context.Context, code string) (*Order, error) {
	return s.orderLookup(s.orderRepo.GetByDepositCode(ctx, code))
}

func (s *PostgresStorage) GetOrderByWithdrawPassword(ctx context.Context, password string) (*Order, error) {
	return s.orderLookup(s.orderRepo.GetByWithdrawPassword(ctx, password))
}

func (s *PostgresStorage) orderLookup(row *repository.Order, err error) (*Order, error) {
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	order := orderFromRepo(row)
	return &order, nil
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, customerDepositedAt, withdrawnAt *time.Time) error {
	err := s.orderRepo.UpdateStatus(ctx, orderID, string(status), customerDepositedAt, withdrawnAt)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListActiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.orderRepo.GetAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	orders := make([]Order, len(rows))
	for i, row := range rows {
		orders[i] = orderFromRepo(row)
	}
	return orders, nil
}

func (s *PostgresStorage) AppendTransaction(ctx context.Context, entry TransactionEntry) error {
	if err := s.transactionRepo.Append(ctx, transactionToRepo(entry)); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListUnpublishedTransactions(ctx context.Context, limit int) ([]TransactionEntry, error) {
	rows, err := s.transactionRepo.GetUnpublished(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished transactions: %w", err)
	}
	entries := make([]TransactionEntry, len(rows))
	for i, row := range rows {
		entries[i] = transactionFromRepo(row)
	}
	return entries, nil
}

func (s *PostgresStorage) MarkTransactionPublished(ctx context.Context, id uuid.UUID) error {
	if err := s.transactionRepo.MarkPublished(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("mark transaction published: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func lockerToRepo(l Locker) *repository.Locker {
	row := &repository.Locker{
		ID:         l.ID,
		Occupied:   l.Occupied,
		DoorClosed: l.DoorClosed,
		OrderID:    l.OrderID,
		Reserved:   l.Reserved,
		DeviceType: l.DeviceType,
		RelayPin:   l.RelayPin,
		SensorPin:  l.SensorPin,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	if l.WithdrawPassword != "" {
		row.WithdrawPassword = &l.WithdrawPassword
	}
	return row
}

func lockerFromRepo(row *repository.Locker) Locker {
	locker := Locker{
		ID:         row.ID,
		Occupied:   row.Occupied,
		DoorClosed: row.DoorClosed,
		OrderID:    row.OrderID,
		Reserved:   row.Reserved,
		DeviceType: row.DeviceType,
		RelayPin:   row.RelayPin,
		SensorPin:  row.SensorPin,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.WithdrawPassword != nil {
		locker.WithdrawPassword = *row.WithdrawPassword
	}
	return locker
}

func orderToRepo(o Order) *repository.Order {
	return &repository.Order{
		OrderID:             o.OrderID,
		LockerID:            o.LockerID,
		DepositCode:         o.DepositCode,
		WithdrawPassword:    o.WithdrawPassword,
		Status:              string(o.Status),
		CreatedAt:           o.CreatedAt,
		CustomerDepositedAt: o.CustomerDepositedAt,
		WithdrawnAt:         o.WithdrawnAt,
	}
}

func orderFromRepo(row *repository.Order) Order {
	return Order{
		OrderID:             row.OrderID,
		LockerID:            row.LockerID,
		DepositCode:         row.DepositCode,
		WithdrawPassword:    row.WithdrawPassword,
		Status:              OrderStatus(row.Status),
		CreatedAt:           row.CreatedAt,
		CustomerDepositedAt: row.CustomerDepositedAt,
		WithdrawnAt:         row.WithdrawnAt,
	}
}

func transactionToRepo(e TransactionEntry) *repository.Transaction {
	row := &repository.Transaction{
		ID:        e.ID,
		LockerID:  e.LockerID,
		OrderID:   e.OrderID,
		Action:    e.Action,
		Timestamp: e.Timestamp,
		Published: e.Published,
	}
	if e.DepositCode != "" {
		row.DepositCode = &e.DepositCode
	}
	if e.WithdrawPassword != "" {
		row.WithdrawPassword = &e.WithdrawPassword
	}
	return row
}

func transactionFromRepo(row *repository.Transaction) TransactionEntry {
	entry := TransactionEntry{
		ID:          row.ID,
		LockerID:    row.LockerID,
		OrderID:     row.OrderID,
		Action:      row.Action,
		Timestamp:   row.Timestamp,
		Published:   row.Published,
		PublishedAt: row.PublishedAt,
	}
	if row.DepositCode != nil {
		entry.DepositCode = *row.DepositCode
	}
	if row.WithdrawPassword != nil {
		entry.WithdrawPassword = *row.WithdrawPassword
	}
	return entry
}
