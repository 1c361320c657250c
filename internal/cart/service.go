package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store    Store
	products ProductLookup
	log      *zap.Logger
	now      func() time.Time

	maxConcurrent int
}

func NewService(store Store, products ProductLookup, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:         store,
		products:      products,
		log:           log,
		now:           time.Now,
		maxConcurrent: 8,
	}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (View, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return View{}, err
	}
	c, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.join(ctx, c)
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (View, error) {
	if err := apperr.CheckIDs(userID, productID); err != nil {
		return View{}, err
	}
	if err := checkQuantity(quantity); err != nil {
		return View{}, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if product.Stock < quantity {
		return View{}, apperr.Validation(apperr.MsgInsufficientStock)
	}

	c, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}

	now := s.now()
	idx := c.indexOf(productID)
	switch {
	case idx < 0 && len(c.Items) >= MaxCartItems:
		return View{}, apperr.Validationf("Maximum %d items allowed in cart", MaxCartItems)
	case idx >= 0:
		// Only the cap is checked for an existing line, stock was checked
		// against the requested quantity above.
		next := c.Items[idx].Quantity + quantity
		if next > MaxItemQuantity {
			return View{}, apperr.Validationf("Maximum quantity per item is %d", MaxItemQuantity)
		}
		c.Items[idx].Quantity = next
	default:
		price := product.Price
		c.Items = append(c.Items, Item{
			ProductID: productID,
			Quantity:  quantity,
			Price:     &price,
			AddedAt:   now,
		})
	}

	c.touch(now)
	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.join(ctx, c)
}

func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (View, error) {
	if err := apperr.CheckIDs(userID, productID); err != nil {
		return View{}, err
	}
	if err := checkQuantity(quantity); err != nil {
		return View{}, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if product.Stock < quantity {
		return View{}, apperr.Validation(apperr.MsgInsufficientStock)
	}

	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return View{}, err
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return View{}, apperr.NotFound(apperr.MsgItemNotInCart)
	}
	c.Items[idx].Quantity = quantity

	c.touch(s.now())
	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.join(ctx, c)
}

// RemoveItem drops the product's line. Removing a product that is not in
// the cart is not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (View, error) {
	if err := apperr.CheckIDs(userID, productID); err != nil {
		return View{}, err
	}
	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return View{}, err
	}

	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	c.touch(s.now())
	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.join(ctx, c)
}

func (s *Service) Clear(ctx context.Context, userID string) (View, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return View{}, err
	}
	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return View{}, err
	}
	c.Items = []Item{}
	c.touch(s.now())
	if err := s.store.Save(ctx, c); err != nil {
		return View{}, err
	}
	return s.join(ctx, c)
}

// Total returns the cart value at live catalog prices, or zero when the
// user has no cart.
func (s *Service) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return decimal.Zero, err
	}
	c, err := s.store.FindByUser(ctx, userID)
	if apperr.IsNotFound(err) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	v, err := s.join(ctx, c)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.reconcile(ctx, c, v); err != nil {
		return decimal.Zero, err
	}
	return v.Total(), nil
}

// reconcile re-reads every joined product of a cart that has not been
// touched for PriceStaleAfter. When any price moved, only lastUpdated is
// refreshed; stored line prices are left as they are.
func (s *Service) reconcile(ctx context.Context, c Cart, v View) error {
	now := s.now()
	if !c.LastUpdated.IsZero() && !c.LastUpdated.Before(now.Add(-PriceStaleAfter)) {
		return nil
	}

	changed := false
	for _, l := range v.Items {
		if l.Product == nil {
			continue
		}
		live, err := s.products.Get(ctx, l.ProductID)
		if apperr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if !live.Price.Equal(l.Product.Price) {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	s.log.Debug("cart prices changed, refreshing staleness clock",
		zap.String("user_id", c.UserID),
		zap.Time("last_updated", c.LastUpdated))
	c.touch(now)
	return s.store.Save(ctx, c)
}

func (s *Service) loadOrCreate(ctx context.Context, userID string) (Cart, error) {
	c, err := s.store.FindByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !apperr.IsNotFound(err) {
		return Cart{}, err
	}

	now := s.now()
	return s.store.Create(ctx, Cart{
		UserID:      userID,
		Items:       []Item{},
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// join looks up every line's product concurrently.
func (s *Service) join(ctx context.Context, c Cart) (View, error) {
	lines := make([]Line, len(c.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, it := range c.Items {
		lines[i] = Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			AddedAt:   it.AddedAt,
		}
		g.Go(func() error {
			p, err := s.products.Get(gctx, it.ProductID)
			if apperr.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("join product %s: %w", it.ProductID, err)
			}
			lines[i].Product = &ProductSummary{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Image: p.Image(),
				Stock: p.Stock,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	return View{
		UserID:      c.UserID,
		Items:       lines,
		LastUpdated: c.LastUpdated,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func checkQuantity(q int) error {
	if q < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	if q > MaxItemQuantity {
		return apperr.Validationf("Maximum quantity per item is %d", MaxItemQuantity)
	}
	return nil
}
