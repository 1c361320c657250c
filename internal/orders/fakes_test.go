package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

func newMemStore() *memStore { return &memStore{orders: map[string]Order{}} }

func (m *memStore) Insert(ctx context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	return o, nil
}

func (m *memStore) sorted(keep func(Order) bool) []Order {
	out := []Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) FindByUser(ctx context.Context, userID string, status Status) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(o Order) bool {
		return o.UserID == userID && (status == "" || o.Status == status)
	}), nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id, userID string, status Status, at time.Time) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || (userID != "" && o.UserID != userID) {
		return Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	o.Status = status
	o.UpdatedAt = at
	m.orders[id] = o
	return o, nil
}

func (m *memStore) List(ctx context.Context, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(Order) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), nil
}

func (m *memStore) Revenue(ctx context.Context, exclude Status) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, o := range m.orders {
		if o.Status != exclude {
			sum = sum.Add(o.Total)
		}
	}
	return sum, nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	calls    int
}

func newMemProducts() *memProducts {
	return &memProducts{products: map[string]catalog.Product{}}
}

func (m *memProducts) add(name, price string) catalog.Product {
	p := catalog.Product{
		ID:     uuid.NewString(),
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  10,
		Images: []string{name + ".png"},
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return p
}

func (m *memProducts) setPrice(id, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Price = decimal.RequireFromString(price)
	m.products[id] = p
}

func (m *memProducts) remove(id string) {
	m.mu.Lock()
	delete(m.products, id)
	m.mu.Unlock()
}

func (m *memProducts) Get(ctx context.Context, id string) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return p, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func address() Address {
	return Address{Street: "1 Main St", City: "Springfield", State: "IL", Country: "US", ZipCode: "62701"}
}
