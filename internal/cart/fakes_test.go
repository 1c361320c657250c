package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu    sync.Mutex
	carts map[string]Cart
	saves int
}

func newMemStore() *memStore { return &memStore{carts: map[string]Cart{}} }

func clone(c Cart) Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func (m *memStore) FindByUser(ctx context.Context, userID string) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return Cart{}, apperr.NotFound(apperr.MsgCartNotFound)
	}
	return clone(c), nil
}

func (m *memStore) Create(ctx context.Context, c Cart) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.carts[c.UserID]; ok {
		return clone(existing), nil
	}
	m.carts[c.UserID] = clone(c)
	return clone(c), nil
}

func (m *memStore) Save(ctx context.Context, c Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[c.UserID]; !ok {
		return apperr.NotFound(apperr.MsgCartNotFound)
	}
	m.carts[c.UserID] = clone(c)
	m.saves++
	return nil
}

// memProducts serves catalog products. When a product has an entry in
// next, the first lookup returns the stored price and later lookups the
// next price, simulating an out-of-band price change.
type memProducts struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	next     map[string]decimal.Decimal
	failWith error
}

func newMemProducts() *memProducts {
	return &memProducts{
		products: map[string]catalog.Product{},
		next:     map[string]decimal.Decimal{},
	}
}

func (m *memProducts) add(name string, price string, stock int) catalog.Product {
	p := catalog.Product{
		ID:     uuid.NewString(),
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Images: []string{name + ".png"},
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return p
}

func (m *memProducts) Get(ctx context.Context, id string) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return catalog.Product{}, m.failWith
	}
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if price, ok := m.next[id]; ok {
		delete(m.next, id)
		m.products[id] = catalog.Product{ID: p.ID, Name: p.Name, Price: price, Stock: p.Stock, Images: p.Images}
	}
	return p, nil
}

var errStoreDown = errors.New("store down")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
