package httpx

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront/internal/admin"
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (p *capturePublisher) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, kafka.Message{Key: key, Value: value, Headers: headers})
}

func (p *capturePublisher) sent() []kafka.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.Message(nil), p.msgs...)
}

// stubOrders keeps orders in memory and records how often Create ran.
type stubOrders struct {
	mu      sync.Mutex
	byID    map[string]orders.Order
	creates int
	err     error
}

func newStubOrders() *stubOrders { return &stubOrders{byID: map[string]orders.Order{}} }

func (s *stubOrders) put(o orders.Order) {
	s.mu.Lock()
	s.byID[o.ID] = o
	s.mu.Unlock()
}

func (s *stubOrders) Create(ctx context.Context, userID string, in orders.CreateInput) (orders.Order, error) {
	if s.err != nil {
		return orders.Order{}, s.err
	}
	if err := in.Validate(); err != nil {
		return orders.Order{}, err
	}
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	items := make([]orders.Item, len(in.Items))
	for i, it := range in.Items {
		items[i] = orders.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
	}
	o := orders.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          orders.StatusPending,
		Total:           in.Total(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.put(o)
	return o, nil
}

func (s *stubOrders) CreateAdmin(ctx context.Context, in orders.CreateInput) (orders.Order, error) {
	return s.Create(ctx, "", in)
}

func (s *stubOrders) Get(ctx context.Context, id string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return orders.Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	return o, nil
}

func (s *stubOrders) GetForUser(ctx context.Context, id, userID string) (orders.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	if o.UserID != userID {
		return orders.Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	return o, nil
}

func (s *stubOrders) History(ctx context.Context, userID, status string) ([]orders.HistoryEntry, error) {
	if status != "" {
		if _, err := orders.ParseStatus(status); err != nil {
			return nil, err
		}
	}
	return []orders.HistoryEntry{}, nil
}

func (s *stubOrders) setStatus(id, status string, owner func(orders.Order) bool) (orders.Order, error) {
	st, err := orders.ParseStatus(status)
	if err != nil {
		return orders.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok || !owner(o) {
		return orders.Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	o.Status = st
	o.UpdatedAt = o.UpdatedAt.Add(time.Minute)
	s.byID[id] = o
	return o, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, id, userID, status string) (orders.Order, error) {
	return s.setStatus(id, status, func(o orders.Order) bool { return o.UserID == userID })
}

func (s *stubOrders) AdminUpdateStatus(ctx context.Context, id, status string) (orders.Order, error) {
	return s.setStatus(id, status, func(orders.Order) bool { return true })
}

func (s *stubOrders) Stats(ctx context.Context, userID string) (orders.Stats, error) {
	return orders.Stats{StatusCounts: map[orders.Status]int{}}, nil
}

func (s *stubOrders) ListAll(ctx context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	return out, nil
}

type stubCatalog struct {
	products map[string]catalog.Product
	lastF    catalog.Filter
	deltas   []int
}

func (s *stubCatalog) Get(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return p, nil
}

func (s *stubCatalog) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	s.lastF = f
	out := []catalog.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	if err := in.Validate(); err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{ID: uuid.NewString(), Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (s *stubCatalog) Update(ctx context.Context, id string, in catalog.ProductInput) (catalog.Product, error) {
	return s.Get(ctx, id)
}

func (s *stubCatalog) Delete(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s *stubCatalog) AdjustStock(ctx context.Context, id string, delta int) (catalog.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if p.Stock+delta < 0 {
		return catalog.Product{}, apperr.Validation(apperr.MsgInsufficientStock)
	}
	s.deltas = append(s.deltas, delta)
	p.Stock += delta
	return p, nil
}

func (s *stubCatalog) Featured(ctx context.Context) ([]catalog.Product, error) {
	return s.List(ctx, catalog.Filter{Featured: true, Limit: catalog.FeaturedLimit})
}

func (s *stubCatalog) Related(ctx context.Context, id string) ([]catalog.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, catalog.Filter{Category: p.Category, ExcludeID: id, Limit: catalog.RelatedLimit})
}

func (s *stubCatalog) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("Search query is required")
	}
	return s.List(ctx, catalog.Filter{Search: query, Limit: catalog.SearchLimit})
}

func (s *stubCatalog) AddReview(ctx context.Context, id, userID string, in catalog.ReviewInput) (catalog.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if err := in.Validate(); err != nil {
		return catalog.Product{}, err
	}
	if err := p.AddReview(catalog.Review{UserID: userID, Rating: in.Rating, Comment: in.Comment}); err != nil {
		return catalog.Product{}, err
	}
	s.products[id] = p
	return p, nil
}

type stubCart struct {
	userID string
	err    error
}

func (s *stubCart) view(ctx context.Context, userID string) (cart.View, error) {
	s.userID = userID
	if s.err != nil {
		return cart.View{}, s.err
	}
	return cart.View{UserID: userID, Items: []cart.Line{}}, nil
}

func (s *stubCart) GetOrCreate(ctx context.Context, userID string) (cart.View, error) {
	return s.view(ctx, userID)
}

func (s *stubCart) AddItem(ctx context.Context, userID, productID string, quantity int) (cart.View, error) {
	if quantity > cart.MaxItemQuantity {
		return cart.View{}, apperr.Validationf("Maximum quantity per item is %d", cart.MaxItemQuantity)
	}
	return s.view(ctx, userID)
}

func (s *stubCart) UpdateItem(ctx context.Context, userID, productID string, quantity int) (cart.View, error) {
	return cart.View{}, apperr.NotFound(apperr.MsgItemNotInCart)
}

func (s *stubCart) RemoveItem(ctx context.Context, userID, productID string) (cart.View, error) {
	return s.view(ctx, userID)
}

func (s *stubCart) Clear(ctx context.Context, userID string) (cart.View, error) {
	return s.view(ctx, userID)
}

func (s *stubCart) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	s.userID = userID
	return decimal.RequireFromString("64.5"), s.err
}

type stubDashboard struct{}

func (stubDashboard) Dashboard(ctx context.Context) (admin.Dashboard, error) {
	return admin.Dashboard{TotalProducts: 3, TotalOrders: 2, TotalRevenue: decimal.NewFromInt(210)}, nil
}
