package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	products map[string]Product
	lastList Filter
}

func newFakeStore() *fakeStore { return &fakeStore{products: map[string]Product{}} }

func (f *fakeStore) Get(ctx context.Context, id string) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return p, nil
}

func (f *fakeStore) List(ctx context.Context, fl Filter) ([]Product, error) {
	f.lastList = fl
	out := []Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, p Product) (Product, error) {
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) Update(ctx context.Context, p Product) (Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) AdjustStock(ctx context.Context, id string, delta int) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if p.Stock+delta < 0 {
		return Product{}, apperr.Validation(apperr.MsgInsufficientStock)
	}
	p.Stock += delta
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) AddReview(ctx context.Context, id string, r Review) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	p.Reviews = append([]Review(nil), p.Reviews...)
	if err := p.AddReview(r); err != nil {
		return Product{}, err
	}
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.products), nil }

func (f *fakeStore) TopByStock(ctx context.Context, limit int) ([]Product, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, store
}

func validInput() ProductInput {
	return ProductInput{
		Name:     "Whey Protein",
		Category: "supplements",
		Price:    decimal.RequireFromString("20"),
		Stock:    10,
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		svc, store := newTestService()
		p, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.NoError(t, apperr.CheckIDs(p.ID))
		assert.Equal(t, svc.now(), p.CreatedAt)
		assert.Equal(t, []string{}, p.Images)
		assert.Contains(t, store.products, p.ID)
	})

	cases := map[string]func(*ProductInput){
		"blank name":     func(in *ProductInput) { in.Name = "  " },
		"blank category": func(in *ProductInput) { in.Category = "" },
		"negative price": func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) },
		"sub-cent price": func(in *ProductInput) { in.Price = decimal.RequireFromString("19.999") },
		"negative stock": func(in *ProductInput) { in.Stock = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Get(ctx, "abc")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Get(ctx, "0b8a4a4e-3f0e-4d4b-9d8e-6d8f1e2a3b4c")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.AdjustStock(ctx, p.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	got, err = svc.AdjustStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Stock)

	_, err = svc.AdjustStock(ctx, p.ID, -12)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, apperr.MsgInsufficientStock, err.Error())
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	p, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Price = decimal.RequireFromString("25.50")
	updated, err := svc.Update(ctx, p.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Empty(t, store.products)
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, p.ID)))
}

func TestListProductsFilter(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	_, err := svc.List(ctx, Filter{SortBy: "rating"})
	assert.True(t, apperr.IsValidation(err))

	lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)
	_, err = svc.List(ctx, Filter{MinPrice: &lo, MaxPrice: &hi})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.List(ctx, Filter{Search: "  whey ", Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, "whey", store.lastList.Search)
	assert.Equal(t, 100, store.lastList.Limit)
}

func TestFeaturedRelatedSearch(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	p, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, Filter{Featured: true, Limit: FeaturedLimit}, store.lastList)

	_, err = svc.Related(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Filter{Category: "supplements", ExcludeID: p.ID, Limit: RelatedLimit}, store.lastList)

	_, err = svc.Related(ctx, "7f9c0b7e-2f6a-4c1e-9d55-3b7a1c2e4f10")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Search(ctx, " whey ")
	require.NoError(t, err)
	assert.Equal(t, Filter{Search: "whey", Limit: SearchLimit}, store.lastList)

	_, err = svc.Search(ctx, "   ")
	assert.True(t, apperr.IsValidation(err))
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	const (
		alice = "0b6f7e7a-8d8e-4c7a-9a39-6e0f1c2b3d4e"
		bob   = "5c1d2e3f-4a5b-4c6d-8e7f-901a2b3c4d5e"
	)

	got, err := svc.AddReview(ctx, p.ID, alice, ReviewInput{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)
	assert.Equal(t, 5.0, got.Rating)
	assert.Equal(t, "great", got.Reviews[0].Comment)
	assert.Equal(t, svc.now().UTC(), got.Reviews[0].Date)

	got, err = svc.AddReview(ctx, p.ID, bob, ReviewInput{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.Equal(t, 3.5, got.Rating)

	_, err = svc.AddReview(ctx, p.ID, alice, ReviewInput{Rating: 1})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, MsgAlreadyReviewed, err.Error())

	_, err = svc.AddReview(ctx, p.ID, bob, ReviewInput{Rating: 6})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AddReview(ctx, p.ID, "nope", ReviewInput{Rating: 3})
	assert.True(t, apperr.IsValidation(err))
}
