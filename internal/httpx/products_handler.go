package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
	Update(ctx context.Context, id string, in catalog.ProductInput) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (catalog.Product, error)
	Featured(ctx context.Context) ([]catalog.Product, error)
	Related(ctx context.Context, id string) ([]catalog.Product, error)
	Search(ctx context.Context, query string) ([]catalog.Product, error)
	AddReview(ctx context.Context, id, userID string, in catalog.ReviewInput) (catalog.Product, error)
}

// ProductsHandler serves the public catalog.
type ProductsHandler struct {
	Catalog CatalogService
	Log     *zap.Logger
	Timeout time.Duration
}

func (h *ProductsHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	r.Get("/products", h.list)
	r.Get("/products/featured", h.featured)
	r.Get("/products/search", h.search)
	r.Get("/products/{id}", h.get)
	r.Get("/products/{id}/related", h.related)
	r.With(requireUser).Post("/products/{id}/reviews", h.review)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	ps, err := h.Catalog.List(ctx, f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) featured(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, func(ctx context.Context) ([]catalog.Product, error) {
		return h.Catalog.Featured(ctx)
	})
}

func (h *ProductsHandler) search(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, func(ctx context.Context) ([]catalog.Product, error) {
		return h.Catalog.Search(ctx, r.URL.Query().Get("query"))
	})
}

func (h *ProductsHandler) related(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, func(ctx context.Context) ([]catalog.Product, error) {
		return h.Catalog.Related(ctx, chi.URLParam(r, "id"))
	})
}

func (h *ProductsHandler) listing(w http.ResponseWriter, r *http.Request, op func(context.Context) ([]catalog.Product, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	ps, err := op(ctx)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) review(w http.ResponseWriter, r *http.Request) {
	var req catalog.ReviewInput
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orDefault(h.Timeout))
	defer cancel()

	p, err := h.Catalog.AddReview(ctx, chi.URLParam(r, "id"), UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// parseFilter reads category, search, minPrice, maxPrice, sortBy, order and
// limit from the query string.
func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		return f, apperr.Validation("order must be asc or desc")
	}

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, apperr.Validationf("%s must be a number", p.name)
		}
		*p.dst = &d
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, apperr.Validation("limit must be a positive integer")
		}
		f.Limit = n
	}
	return f, nil
}
