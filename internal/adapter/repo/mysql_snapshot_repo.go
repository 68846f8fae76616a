package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

var ErrNotFound = errors.New("not found")

// MySQLSnapshotRepo is the local read model of tracked orders: the last
// fetched copy of each order, keyed by order id. It serves the order view
// after polling stops and absorbs status events from the kafka listener.
type MySQLSnapshotRepo struct{ db *sql.DB }

func NewMySQLSnapshotRepo(db *sql.DB) *MySQLSnapshotRepo { return &MySQLSnapshotRepo{db: db} }

func (r *MySQLSnapshotRepo) Upsert(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO order_snapshots (id, order_number, status, payment_status, total_amount, payload, updated_at)
VALUES (?,?,?,?,?,?,NOW())
ON DUPLICATE KEY UPDATE
  status = VALUES(status),
  payment_status = VALUES(payment_status),
  total_amount = VALUES(total_amount),
  payload = VALUES(payload),
  updated_at = NOW()`,
		o.ID, o.OrderNumber, string(o.Status), string(o.PaymentStatus), o.TotalAmount, payload)
	return err
}

func (r *MySQLSnapshotRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM order_snapshots WHERE id = ?`, orderID)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var o domain.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return &o, nil
}

// UpdateStatusIf performs a guarded transition: the status column only moves
// when the stored value still matches fromStatus. rows == 0 means not found
// or already moved on.
func (r *MySQLSnapshotRepo) UpdateStatusIf(ctx context.Context, orderID, fromStatus, toStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE order_snapshots
SET status = ?, updated_at = NOW()
WHERE id = ? AND status = ?`,
		toStatus, orderID, fromStatus)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

var _ usecase.OrderSnapshots = (*MySQLSnapshotRepo)(nil)
