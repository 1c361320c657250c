package cart

import (
	"context"

	"github.com/ariefcatur/go-storefront/internal/catalog"
)

type Store interface {
	// FindByUser returns apperr.NotFound when the user has no cart.
	FindByUser(ctx context.Context, userID string) (Cart, error)
	// Create persists a new cart. If another request created the user's cart
	// first, the existing one is returned.
	Create(ctx context.Context, c Cart) (Cart, error)
	// Save replaces the whole cart document. Last write wins.
	Save(ctx context.Context, c Cart) error
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}
