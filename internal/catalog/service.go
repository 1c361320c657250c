package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/google/uuid"
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Get is the product lookup used by the cart and order flows.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if err := apperr.CheckIDs(id); err != nil {
		return Product{}, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	switch f.SortBy {
	case "", SortNewest, SortPrice, SortName:
	default:
		return nil, apperr.Validationf("unsupported sort %q", f.SortBy)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperr.Validation("minPrice cannot exceed maxPrice")
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.store.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	p := Product{ID: uuid.NewString(), Reviews: []Review{}, CreatedAt: now}
	apply(&p, in, now)
	return s.store.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if err := apperr.CheckIDs(id); err != nil {
		return Product{}, err
	}
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	apply(&p, in, s.now().UTC())
	return s.store.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := apperr.CheckIDs(id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// AdjustStock applies a signed quantity to the product's stock. The store
// rejects adjustments that would leave stock negative.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (Product, error) {
	if err := apperr.CheckIDs(id); err != nil {
		return Product{}, err
	}
	return s.store.AdjustStock(ctx, id, delta)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// TopByStock returns the n products with the most units on hand.
func (s *Service) TopByStock(ctx context.Context, n int) ([]Product, error) {
	return s.store.TopByStock(ctx, n)
}

func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx, Filter{Featured: true, Limit: FeaturedLimit})
}

// Related lists other products of the same category.
func (s *Service) Related(ctx context.Context, id string) ([]Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, Filter{Category: p.Category, ExcludeID: p.ID, Limit: RelatedLimit})
}

// Search matches query against product names and descriptions.
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Search query is required")
	}
	return s.store.List(ctx, Filter{Search: query, Limit: SearchLimit})
}

func (s *Service) AddReview(ctx context.Context, id, userID string, in ReviewInput) (Product, error) {
	if err := apperr.CheckIDs(id, userID); err != nil {
		return Product{}, err
	}
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	return s.store.AddReview(ctx, id, Review{
		UserID:  userID,
		Rating:  in.Rating,
		Comment: strings.TrimSpace(in.Comment),
		Date:    s.now().UTC(),
	})
}

func apply(p *Product, in ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Category = strings.TrimSpace(in.Category)
	p.Price = in.Price
	p.Stock = in.Stock
	p.Images = in.Images
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Featured = in.Featured
	p.UpdatedAt = now
}
