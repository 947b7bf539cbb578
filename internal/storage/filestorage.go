package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStorage keeps the whole locker bank state in a single JSON file. It is
// the default backend for single-board deployments where running postgres is
// not worth it. Every mutating call rewrites the file before returning.
type FileStorage struct {
	filePath string
	mu       sync.Mutex
	data     *fileData
}

type fileData struct {
	Lockers      []Locker           `json:"lockers"`
	Orders       []Order            `json:"orders"`
	Transactions []TransactionEntry `json:"transactions"`
}

func NewFileStorage(filePath string) (*FileStorage, error) {
	fs := &FileStorage{
		filePath: filePath,
		data:     &fileData{},
	}
	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("load storage file: %w", err)
	}
	return fs, nil
}

func (fs *FileStorage) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(fs.data)
}

// persistLocked writes the current state to disk. Callers must hold fs.mu.
func (fs *FileStorage) persistLocked() error {
	if dir := filepath.Dir(fs.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(fs.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(fs.data)
}

// Provision inserts any lockers missing from the file. Existing rows keep
// their state so restarts never lose occupancy.
func (fs *FileStorage) Provision(ctx context.Context, lockers []Locker) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	existing := make(map[int]bool, len(fs.data.Lockers))
	for _, l := range fs.data.Lockers {
		existing[l.ID] = true
	}

	added := false
	for _, l := range lockers {
		if existing[l.ID] {
			continue
		}
		fs.data.Lockers = append(fs.data.Lockers, l)
		added = true
	}

	if !added {
		return nil
	}
	return fs.persistLocked()
}

func (fs *FileStorage) lockerLocked(id int) (*Locker, error) {
	for i := range fs.data.Lockers {
		if fs.data.Lockers[i].ID == id {
			return &fs.data.Lockers[i], nil
		}
	}
	return nil, ErrLockerNotFound
}

func (fs *FileStorage) GetLocker(ctx context.Context, id int) (*Locker, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	locker, err := fs.lockerLocked(id)
	if err != nil {
		return nil, err
	}
	copied := *locker
	return &copied, nil
}

func (fs *FileStorage) ListLockers(ctx context.Context) ([]Locker, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	lockers := make([]Locker, len(fs.data.Lockers))
	copy(lockers, fs.data.Lockers)
	return lockers, nil
}

// CreateOrderOccupyLocker records the order and binds its locker in one
// persisted step, so a crash can never leave an order without an occupied
// locker or the reverse.
func (fs *FileStorage) CreateOrderOccupyLocker(ctx context.Context, order Order) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	locker, err := fs.lockerLocked(order.LockerID)
	if err != nil {
		return err
	}
	for _, o := range fs.data.Orders {
		if o.OrderID == order.OrderID {
			return ErrOrderExists
		}
	}

	fs.data.Orders = append(fs.data.Orders, order)
	orderID := order.OrderID
	locker.Occupied = true
	locker.OrderID = &orderID
	locker.WithdrawPassword = order.WithdrawPassword
	locker.UpdatedAt = time.Now().UTC()
	return fs.persistLocked()
}

// ReleaseLockerFinalizeOrder clears the locker binding and moves the order to
// its terminal status in one persisted step.
func (fs *FileStorage) ReleaseLockerFinalizeOrder(ctx context.Context, lockerID int, orderID int64, withdrawnAt time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	locker, err := fs.lockerLocked(lockerID)
	if err != nil {
		return err
	}
	order, err := fs.orderLocked(orderID)
	if err != nil {
		return err
	}

	locker.Occupied = false
	locker.OrderID = nil
	locker.WithdrawPassword = ""
	locker.DoorClosed = true
	locker.UpdatedAt = time.Now().UTC()

	order.Status = StatusWithdrawn
	order.WithdrawnAt = &withdrawnAt
	return fs.persistLocked()
}

func (fs *FileStorage) SetDoorState(ctx context.Context, id int, closed bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	locker, err := fs.lockerLocked(id)
	if err != nil {
		return err
	}

	locker.DoorClosed = closed
	locker.UpdatedAt = time.Now().UTC()
	return fs.persistLocked()
}

func (fs *FileStorage) orderLocked(orderID int64) (*Order, error) {
	for i := range fs.data.Orders {
		if fs.data.Orders[i].OrderID == orderID {
			return &fs.data.Orders[i], nil
		}
	}
	return nil, ErrOrderNotFound
}

func (fs *FileStorage) GetOrderByID(ctx context.Context, orderID int64) (*Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i := range fs.data.Orders {
		if fs.data.Orders[i].OrderID == orderID {
			copied := fs.data.Orders[i]
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (fs *FileStorage) GetOrderByDepositCode(ctx context.Context, code string) (*Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i := range fs.data.Orders {
		o := &fs.data.Orders[i]
		if o.DepositCode == code && o.Status.Active() {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (fs *FileStorage) GetOrderByWithdrawPassword(ctx context.Context, password string) (*Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i := range fs.data.Orders {
		o := &fs.data.Orders[i]
		if o.WithdrawPassword == password && o.Status.Active() {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (fs *FileStorage) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, customerDepositedAt, withdrawnAt *time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i := range fs.data.Orders {
		o := &fs.data.Orders[i]
		if o.OrderID != orderID {
			continue
		}
		o.Status = status
		if customerDepositedAt != nil {
			o.CustomerDepositedAt = customerDepositedAt
		}
		if withdrawnAt != nil {
			o.WithdrawnAt = withdrawnAt
		}
		return fs.persistLocked()
	}
	return ErrOrderNotFound
}

func (fs *FileStorage) ListActiveOrders(ctx context.Context) ([]Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var orders []Order
	for _, o := range fs.data.Orders {
		if o.Status.Active() {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (fs *FileStorage) AppendTransaction(ctx context.Context, entry TransactionEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.data.Transactions = append(fs.data.Transactions, entry)
	return fs.persistLocked()
}

func (fs *FileStorage) ListUnpublishedTransactions(ctx context.Context, limit int) ([]TransactionEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var entries []TransactionEntry
	for _, e := range fs.data.Transactions {
		if e.Published {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (fs *FileStorage) MarkTransactionPublished(ctx context.Context, id uuid.UUID) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i := range fs.data.Transactions {
		if fs.data.Transactions[i].ID == id {
			now := time.Now().UTC()
			fs.data.Transactions[i].Published = true
			fs.data.Transactions[i].PublishedAt = &now
			return fs.persistLocked()
		}
	}
	return ErrTransactionNotFound
}
