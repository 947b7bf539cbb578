package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository"
)

type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *stubTx) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (t *stubTx) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (t *stubTx) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

type stubDB struct {
	tx *stubTx
}

func (d *stubDB) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (d *stubDB) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (d *stubDB) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (d *stubDB) BeginTx(ctx context.Context) (db.Tx, error) {
	return d.tx, nil
}

type stubLockerRepo struct {
	setOccupiedErr  error
	setAvailableErr error
}

func (r *stubLockerRepo) Provision(ctx context.Context, lockers []*repository.Locker) error {
	return nil
}

func (r *stubLockerRepo) GetByID(ctx context.Context, id int) (*repository.Locker, error) {
	return nil, repository.ErrObjectNotFound
}

func (r *stubLockerRepo) GetAll(ctx context.Context) ([]*repository.Locker, error) {
	return nil, nil
}

func (r *stubLockerRepo) SetOccupiedTx(ctx context.Context, tx db.Tx, id int, orderID int64, password string) error {
	return r.setOccupiedErr
}

func (r *stubLockerRepo) SetAvailableTx(ctx context.Context, tx db.Tx, id int) error {
	return r.setAvailableErr
}

func (r *stubLockerRepo) SetDoorState(ctx context.Context, id int, closed bool) error {
	return nil
}

type stubOrderRepo struct {
	createErr       error
	updateStatusErr error
}

func (r *stubOrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	return r.createErr
}

func (r *stubOrderRepo) GetByID(ctx context.Context, orderID int64) (*repository.Order, error) {
	return nil, repository.ErrObjectNotFound
}

func (r *stubOrderRepo) GetByDepositCode(ctx context.Context, code string) (*repository.Order, error) {
	return nil, repository.ErrObjectNotFound
}

func (r *stubOrderRepo) GetByWithdrawPassword(ctx context.Context, password string) (*repository.Order, error) {
	return nil, repository.ErrObjectNotFound
}

func (r *stubOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error {
	return nil
}

func (r *stubOrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error {
	return r.updateStatusErr
}

func (r *stubOrderRepo) GetAllActive(ctx context.Context) ([]*repository.Order, error) {
	return nil, nil
}

type stubTransactionRepo struct{}

func (r *stubTransactionRepo) Append(ctx context.Context, entry *repository.Transaction) error {
	return nil
}

func (r *stubTransactionRepo) GetUnpublished(ctx context.Context, limit int) ([]*repository.Transaction, error) {
	return nil, nil
}

func (r *stubTransactionRepo) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	return nil
}

func newStubPostgres(lockers *stubLockerRepo, orders *stubOrderRepo) (*PostgresStorage, *stubTx) {
	tx := &stubTx{}
	store := NewPostgresStorage(&stubDB{tx: tx}, lockers, orders, &stubTransactionRepo{})
	return store, tx
}

func TestCreateOrderOccupyLockerCommits(t *testing.T) {
	store, tx := newStubPostgres(&stubLockerRepo{}, &stubOrderRepo{})

	order := Order{OrderID: 42, LockerID: 1, DepositCode: "a1b2c3", WithdrawPassword: "d4e5f6", Status: StatusDeposited}
	require.NoError(t, store.CreateOrderOccupyLocker(context.Background(), order))

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestCreateOrderOccupyLockerRollsBackWhenBindingFails(t *testing.T) {
	store, tx := newStubPostgres(
		&stubLockerRepo{setOccupiedErr: repository.ErrObjectNotFound},
		&stubOrderRepo{},
	)

	order := Order{OrderID: 42, LockerID: 99, DepositCode: "a1b2c3", WithdrawPassword: "d4e5f6", Status: StatusDeposited}
	err := store.CreateOrderOccupyLocker(context.Background(), order)

	assert.ErrorIs(t, err, ErrLockerNotFound)
	assert.False(t, tx.committed, "the order insert must not survive a failed locker binding")
	assert.True(t, tx.rolledBack)
}

func TestCreateOrderOccupyLockerMapsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"}
	store, tx := newStubPostgres(&stubLockerRepo{}, &stubOrderRepo{createErr: pgErr})

	order := Order{OrderID: 42, LockerID: 1, DepositCode: "a1b2c3", WithdrawPassword: "d4e5f6", Status: StatusDeposited}
	err := store.CreateOrderOccupyLocker(context.Background(), order)

	assert.ErrorIs(t, err, ErrOrderExists)
	assert.True(t, tx.rolledBack)
}

func TestReleaseLockerFinalizeOrderCommits(t *testing.T) {
	store, tx := newStubPostgres(&stubLockerRepo{}, &stubOrderRepo{})

	require.NoError(t, store.ReleaseLockerFinalizeOrder(context.Background(), 1, 42, time.Now().UTC()))

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestReleaseLockerFinalizeOrderRollsBackOnUnknownOrder(t *testing.T) {
	store, tx := newStubPostgres(
		&stubLockerRepo{},
		&stubOrderRepo{updateStatusErr: repository.ErrObjectNotFound},
	)

	err := store.ReleaseLockerFinalizeOrder(context.Background(), 1, 999, time.Now().UTC())

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.False(t, tx.committed, "freeing the locker must not commit without the order update")
	assert.True(t, tx.rolledBack)
}

func TestIsUniqueViolationIgnoresOtherErrors(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}
