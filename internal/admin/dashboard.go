package admin

import (
	"context"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	RecentOrders = 5
	TopProducts  = 5
)

type Products interface {
	Count(ctx context.Context) (int, error)
	TopByStock(ctx context.Context, n int) ([]catalog.Product, error)
}

type Orders interface {
	Count(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, n int) ([]orders.Order, error)
}

type Dashboard struct {
	TotalProducts int               `json:"totalProducts"`
	TotalOrders   int               `json:"totalOrders"`
	TotalRevenue  decimal.Decimal   `json:"totalRevenue"`
	RecentOrders  []orders.Order    `json:"recentOrders"`
	TopProducts   []catalog.Product `json:"topProducts"`
}

type Service struct {
	products Products
	orders   Orders
}

func NewService(p Products, o Orders) *Service {
	return &Service{products: p, orders: o}
}

// Dashboard runs its five reads concurrently; the first failure cancels the
// rest.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalProducts, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalOrders, err = s.orders.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRevenue, err = s.orders.Revenue(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.orders.Recent(ctx, RecentOrders)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.products.TopByStock(ctx, TopProducts)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
