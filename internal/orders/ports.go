package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

type Store interface {
	Insert(ctx context.Context, o Order) error
	// FindByID returns apperr.NotFound when no order has the id.
	FindByID(ctx context.Context, id string) (Order, error)
	// FindByUser returns the user's orders newest first. An empty status
	// matches every status.
	FindByUser(ctx context.Context, userID string, status Status) ([]Order, error)
	// UpdateStatus overwrites the status of order id. A non-empty userID
	// restricts the match to that user's orders.
	UpdateStatus(ctx context.Context, id, userID string, status Status, at time.Time) (Order, error)
	// List returns orders newest first; limit <= 0 means all of them.
	List(ctx context.Context, limit int) ([]Order, error)
	Count(ctx context.Context) (int, error)
	// Revenue sums totals of orders whose status is not exclude.
	Revenue(ctx context.Context, exclude Status) (decimal.Decimal, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}
