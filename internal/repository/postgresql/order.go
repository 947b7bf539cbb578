package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO orders (order_id, locker_id, deposit_code, withdraw_password, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, order.OrderID, order.LockerID, order.DepositCode, order.WithdrawPassword, order.Status, order.CreatedAt)
	return err
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID int64) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Credential lookups only consider active orders: a withdrawn order's codes
// may already belong to a newer order.
func (r *OrderRepo) GetByDepositCode(ctx context.Context, code string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, `
        SELECT * FROM orders WHERE deposit_code = $1 AND status != 'withdrawn'
    `, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByWithdrawPassword(ctx context.Context, password string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, `
        SELECT * FROM orders WHERE withdraw_password = $1 AND status != 'withdrawn'
    `, password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $1,
            customer_deposited_at = COALESCE($2, customer_deposited_at),
            withdrawn_at = COALESCE($3, withdrawn_at)
        WHERE order_id = $4
    `, status, customerDepositedAt, withdrawnAt, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

// UpdateStatusTx is the transactional variant used when the status change
// must commit together with a locker mutation.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, orderID int64, status string, customerDepositedAt, withdrawnAt *time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = $1,
            customer_deposited_at = COALESCE($2, customer_deposited_at),
            withdrawn_at = COALESCE($3, withdrawn_at)
        WHERE order_id = $4
    `, status, customerDepositedAt, withdrawnAt, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *OrderRepo) GetAllActive(ctx context.Context) ([]*repository.Order, error) {
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, `
        SELECT * FROM orders WHERE status != 'withdrawn' ORDER BY created_at ASC
    `)
	return orders, err
}
