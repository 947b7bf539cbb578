package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/repository"
)

type LockerRepo struct {
	db db.DB
}

func NewLockerRepo(db db.DB) *LockerRepo {
	return &LockerRepo{db: db}
}

// Provision inserts the fixed locker rows, skipping ids that already exist so
// restarts keep occupancy state.
func (r *LockerRepo) Provision(ctx context.Context, lockers []*repository.Locker) error {
	for _, l := range lockers {
		_, err := r.db.Exec(ctx, `
        INSERT INTO lockers (id, is_occupied, door_closed, reserved, device_type, relay_pin, sensor_pin, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO NOTHING
    `, l.ID, l.Occupied, l.DoorClosed, l.Reserved, l.DeviceType, l.RelayPin, l.SensorPin, l.CreatedAt, l.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *LockerRepo) GetByID(ctx context.Context, id int) (*repository.Locker, error) {
	var locker repository.Locker
	err := r.db.Get(ctx, &locker, "SELECT * FROM lockers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &locker, nil
}

func (r *LockerRepo) GetAll(ctx context.Context) ([]*repository.Locker, error) {
	var lockers []*repository.Locker
	err := r.db.Select(ctx, &lockers, "SELECT * FROM lockers ORDER BY id")
	return lockers, err
}

// SetOccupiedTx binds the locker to an order inside the caller's
// transaction so the order row and the binding commit together.
func (r *LockerRepo) SetOccupiedTx(ctx context.Context, tx db.Tx, id int, orderID int64, password string) error {
	tag, err := tx.Exec(ctx, `
        UPDATE lockers
        SET is_occupied = TRUE, order_id = $1, password = $2, updated_at = NOW()
        WHERE id = $3
    `, orderID, password, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *LockerRepo) SetAvailableTx(ctx context.Context, tx db.Tx, id int) error {
	tag, err := tx.Exec(ctx, `
        UPDATE lockers
        SET is_occupied = FALSE, order_id = NULL, password = NULL, door_closed = TRUE, updated_at = NOW()
        WHERE id = $1
    `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *LockerRepo) SetDoorState(ctx context.Context, id int, closed bool) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE lockers SET door_closed = $1, updated_at = NOW() WHERE id = $2
    `, closed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
