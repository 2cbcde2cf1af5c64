// internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
)

// uniqueViolation is the Postgres SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

const orderSchema = `
CREATE TABLE IF NOT EXISTS orders (
  id          TEXT PRIMARY KEY,
  user_id     TEXT NOT NULL,
  user_email  TEXT NOT NULL DEFAULT '',
  items       JSONB NOT NULL,
  address     JSONB NOT NULL,
  sub_total   NUMERIC(12,2) NOT NULL,
  shipping    NUMERIC(12,2) NOT NULL,
  discount    NUMERIC(12,2) NOT NULL DEFAULT 0,
  coupon_code TEXT NOT NULL DEFAULT '',
  total       NUMERIC(12,2) NOT NULL,
  total_items INTEGER NOT NULL,
  status      TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC);
`

const orderColumns = `
  id, user_id, user_email, items, address, sub_total, shipping, discount,
  coupon_code, total, total_items, status, created_at`

// PostgreSQL implementation of order.Repository
type OrderRepositoryPG struct {
	DB  *sql.DB
	now func() time.Time
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db, now: time.Now}
}

// EnsureSchema creates the orders table when missing.
func (r *OrderRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, orderSchema)
	return err
}

// ========================
// RepositoryPort impl
// ========================

func (r *OrderRepositoryPG) Create(ctx context.Context, o orderdom.Order) (orderdom.Order, error) {
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.now().UTC()
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("db: encode items: %w", err)
	}
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("db: encode address: %w", err)
	}

	q := `INSERT INTO orders (` + orderColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.DB.ExecContext(ctx, q,
		o.ID, o.UserID, o.UserEmail, items, addr,
		o.SubTotal, o.Shipping, o.Discount, o.CouponCode,
		o.Total, o.TotalItems, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return orderdom.Order{}, orderdom.ErrConflict
		}
		return orderdom.Order{}, err
	}
	return o, nil
}

func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.DB.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return o, nil
}

func (r *OrderRepositoryPG) ListByUser(ctx context.Context, userID string, f orderdom.Filter) ([]orderdom.Order, error) {
	q, args := buildListByUserQuery(userID, f)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orderdom.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ========================
// Helpers
// ========================

func buildListByUserQuery(userID string, f orderdom.Filter) (string, []any) {
	where := []string{"user_id = $1"}
	args := []any{strings.TrimSpace(userID)}

	if s := strings.TrimSpace(string(f.Status)); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + orderColumns + `
FROM orders
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY created_at DESC, id DESC`

	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}
	return q, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (orderdom.Order, error) {
	var (
		o           orderdom.Order
		items, addr []byte
		status      string
		createdAt   time.Time
	)
	if err := s.Scan(
		&o.ID, &o.UserID, &o.UserEmail, &items, &addr,
		&o.SubTotal, &o.Shipping, &o.Discount, &o.CouponCode,
		&o.Total, &o.TotalItems, &status, &createdAt,
	); err != nil {
		return orderdom.Order{}, err
	}

	if err := decodeOrderJSON(items, addr, &o); err != nil {
		return orderdom.Order{}, err
	}
	o.Status = orderdom.Status(status)
	o.CreatedAt = createdAt.UTC()
	return o, nil
}

func decodeOrderJSON(items, addr []byte, o *orderdom.Order) error {
	var li []cartdom.LineItem
	if len(items) > 0 {
		if err := json.Unmarshal(items, &li); err != nil {
			return fmt.Errorf("db: decode items of order %s: %w", o.ID, err)
		}
	}
	o.Items = li
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.Address); err != nil {
			return fmt.Errorf("db: decode address of order %s: %w", o.ID, err)
		}
	}
	return nil
}
