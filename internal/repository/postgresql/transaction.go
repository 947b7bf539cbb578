package postgresql

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository"
)

type TransactionRepo struct {
	db db.DB
}

func NewTransactionRepo(db db.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Append(ctx context.Context, entry *repository.Transaction) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO transactions (id, locker_id, order_id, action, deposit_code, withdraw_password, timestamp, published)
        VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
    `, entry.ID, entry.LockerID, entry.OrderID, entry.Action, entry.DepositCode, entry.WithdrawPassword, entry.Timestamp)
	return err
}

func (r *TransactionRepo) GetUnpublished(ctx context.Context, limit int) ([]*repository.Transaction, error) {
	var entries []*repository.Transaction
	err := r.db.Select(ctx, &entries, `
        SELECT * FROM transactions WHERE NOT published ORDER BY timestamp ASC LIMIT $1
    `, limit)
	return entries, err
}

func (r *TransactionRepo) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE transactions SET published = TRUE, published_at = $1 WHERE id = $2
    `, publishedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
