package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo keeps order lines and the shipping address as JSONB next to the
// scalar order columns.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, COALESCE(user_id, ''), items, shipping_address, payment_method, status, total, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o           Order
		items, addr []byte
		status      string
	)
	if err := row.Scan(&o.ID, &o.UserID, &items, &addr, &o.PaymentMethod, &status,
		&o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	return o, nil
}

func (r *Repo) Insert(ctx context.Context, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(id, user_id, items, shipping_address, payment_method, status, total, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, items, addr, o.PaymentMethod, string(o.Status), o.Total, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

func (r *Repo) FindByUser(ctx context.Context, userID string, status Status) ([]Order, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+orderColumns+` FROM orders
			WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	}
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id=$1 AND status=$2 ORDER BY created_at DESC`, userID, string(status))
}

func (r *Repo) UpdateStatus(ctx context.Context, id, userID string, status Status, at time.Time) (Order, error) {
	q := `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`
	args := []any{id, string(status), at}
	if userID != "" {
		q += ` AND user_id=$4`
		args = append(args, userID)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, q+` RETURNING `+orderColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *Repo) Revenue(ctx context.Context, exclude Status) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> $1`,
		string(exclude)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return sum, nil
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
