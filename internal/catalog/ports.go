package catalog

import "context"

// Store is implemented by the postgres Repo and by mongostore.ProductRepo.
// Get, Update, Delete and AdjustStock report a missing product as apperr.NotFound.
type Store interface {
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, f Filter) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (Product, error)
	Count(ctx context.Context) (int, error)
	TopByStock(ctx context.Context, limit int) ([]Product, error)
	// AddReview stores r atomically with the recomputed rating. A second
	// review by the same user fails with apperr.Conflict.
	AddReview(ctx context.Context, id string, r Review) (Product, error)
}
