package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo stores one row per user with the lines kept as a JSONB document.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) FindByUser(ctx context.Context, userID string) (Cart, error) {
	var (
		c     Cart
		items []byte
	)
	err := r.DB.QueryRow(ctx, `
		SELECT user_id, items, last_updated, created_at, updated_at
		FROM carts WHERE user_id=$1`, userID).
		Scan(&c.UserID, &items, &c.LastUpdated, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, apperr.NotFound(apperr.MsgCartNotFound)
	}
	if err != nil {
		return Cart{}, fmt.Errorf("find cart: %w", err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return Cart{}, fmt.Errorf("decode cart items: %w", err)
	}
	return c, nil
}

// Create inserts the cart unless the user already has one; either way the
// stored cart is returned.
func (r *Repo) Create(ctx context.Context, c Cart) (Cart, error) {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return Cart{}, err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO carts(user_id, items, last_updated, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO NOTHING`,
		c.UserID, items, c.LastUpdated, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return r.FindByUser(ctx, c.UserID)
}

func (r *Repo) Save(ctx context.Context, c Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE carts SET items=$2, last_updated=$3, updated_at=$4
		WHERE user_id=$1`,
		c.UserID, items, c.LastUpdated, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound(apperr.MsgCartNotFound)
	}
	return nil
}
