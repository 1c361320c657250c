package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store    Store
	products ProductLookup
	now      func() time.Time

	maxConcurrent int
}

func NewService(store Store, products ProductLookup) *Service {
	return &Service{
		store:         store,
		products:      products,
		now:           time.Now,
		maxConcurrent: 8,
	}
}

// Create places an order for userID. Line prices are taken from the input
// as given; only the product name and image are copied from the catalog,
// and a product missing from the catalog leaves them empty. The user's cart
// is left untouched.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Order, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return Order{}, err
	}
	return s.create(ctx, userID, in)
}

// CreateAdmin places an order that belongs to no user.
func (s *Service) CreateAdmin(ctx context.Context, in CreateInput) (Order, error) {
	return s.create(ctx, "", in)
}

func (s *Service) create(ctx context.Context, userID string, in CreateInput) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}

	ids := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		ids[it.ProductID] = struct{}{}
	}
	refs, err := s.fetch(ctx, ids)
	if err != nil {
		return Order{}, err
	}

	items := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		item := Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
		if ref := refs[it.ProductID]; ref != nil {
			item.Name = ref.Name
			item.Image = ref.Image
		}
		items = append(items, item)
	}

	now := s.now()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          StatusPending,
		Total:           in.Total(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Insert(ctx, o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if err := apperr.CheckIDs(id); err != nil {
		return Order{}, err
	}
	return s.store.FindByID(ctx, id)
}

// GetForUser hides orders of other users behind the same NotFound as a
// missing order.
func (s *Service) GetForUser(ctx context.Context, id, userID string) (Order, error) {
	if err := apperr.CheckIDs(id, userID); err != nil {
		return Order{}, err
	}
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	return o, nil
}

// History lists the user's orders newest first, each line joined with the
// product as it is in the catalog now. status may be empty.
func (s *Service) History(ctx context.Context, userID, status string) ([]HistoryEntry, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return nil, err
	}
	var st Status
	if status != "" {
		var err error
		if st, err = ParseStatus(status); err != nil {
			return nil, err
		}
	}

	list, err := s.store.FindByUser(ctx, userID, st)
	if err != nil {
		return nil, err
	}
	refs, err := s.lookup(ctx, list)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(list))
	for _, o := range list {
		lines := make([]HistoryLine, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, HistoryLine{
				Product:  refs[it.ProductID],
				Quantity: it.Quantity,
				Price:    it.Price,
			})
		}
		out = append(out, HistoryEntry{Order: o, Items: lines})
	}
	return out, nil
}

// lookup fetches every distinct product referenced by the orders once.
// Products no longer in the catalog map to nil.
func (s *Service) lookup(ctx context.Context, list []Order) (map[string]*ProductRef, error) {
	ids := map[string]struct{}{}
	for _, o := range list {
		for _, it := range o.Items {
			ids[it.ProductID] = struct{}{}
		}
	}
	return s.fetch(ctx, ids)
}

// fetch reads the products concurrently. Missing ones are left out of the
// result; any other lookup failure is returned.
func (s *Service) fetch(ctx context.Context, ids map[string]struct{}) (map[string]*ProductRef, error) {
	refs := make(map[string]*ProductRef, len(ids))
	results := make(chan *ProductRef, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for id := range ids {
		g.Go(func() error {
			p, err := s.products.Get(gctx, id)
			if apperr.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("lookup product %s: %w", id, err)
			}
			results <- &ProductRef{ID: id, Name: p.Name, Price: p.Price, Image: p.Image()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for r := range results {
		refs[r.ID] = r
	}
	return refs, nil
}

// UpdateStatus changes the status of one of the user's orders. Any status
// may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id, userID, status string) (Order, error) {
	if err := apperr.CheckIDs(id, userID); err != nil {
		return Order{}, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return Order{}, err
	}
	return s.store.UpdateStatus(ctx, id, userID, st, s.now())
}

// AdminUpdateStatus is UpdateStatus without the ownership check.
func (s *Service) AdminUpdateStatus(ctx context.Context, id, status string) (Order, error) {
	if err := apperr.CheckIDs(id); err != nil {
		return Order{}, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return Order{}, err
	}
	return s.store.UpdateStatus(ctx, id, "", st, s.now())
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := apperr.CheckIDs(userID); err != nil {
		return Stats{}, err
	}
	list, err := s.store.FindByUser(ctx, userID, "")
	if err != nil {
		return Stats{}, err
	}

	st := Stats{TotalSpent: decimal.Zero, StatusCounts: map[Status]int{}}
	for _, o := range list {
		st.TotalOrders++
		st.TotalSpent = st.TotalSpent.Add(o.Total)
		st.StatusCounts[o.Status]++
	}
	return st, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx, 0)
}

func (s *Service) Recent(ctx context.Context, n int) ([]Order, error) {
	return s.store.List(ctx, n)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Revenue is the sum of all order totals except cancelled orders.
func (s *Service) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return s.store.Revenue(ctx, StatusCancelled)
}
