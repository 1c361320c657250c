package httpx

import (
	"net/http"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/admin"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDashboard(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/admin/dashboard", uuid.NewString(), RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[admin.Dashboard](t, rec)
	assert.Equal(t, 3, d.TotalProducts)
	assert.True(t, decimal.NewFromInt(210).Equal(d.TotalRevenue))
}

func TestAdminProducts(t *testing.T) {
	ts := newTestServer(t)
	adminID := uuid.NewString()
	p := catalog.Product{ID: uuid.NewString(), Name: "Desk", Price: decimal.NewFromInt(120), Stock: 2}
	ts.catalog.products[p.ID] = p

	rec := ts.do(t, http.MethodPost, "/admin/products", adminID, RoleAdmin, catalog.ProductInput{Name: "Chair", Category: "furniture", Price: decimal.NewFromInt(45), Stock: 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Chair", decodeBody[catalog.Product](t, rec).Name)

	rec = ts.do(t, http.MethodPost, "/admin/products", adminID, RoleAdmin, catalog.ProductInput{Category: "furniture"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/admin/products/"+p.ID+"/stock", adminID, RoleAdmin, AdjustStockReq{Quantity: -2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[catalog.Product](t, rec).Stock)

	rec = ts.do(t, http.MethodPatch, "/admin/products/"+p.ID+"/stock", adminID, RoleAdmin, AdjustStockReq{Quantity: -3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []int{-2}, ts.catalog.deltas)

	rec = ts.do(t, http.MethodDelete, "/admin/products/"+p.ID, adminID, RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/admin/products/"+uuid.NewString(), adminID, RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminOrders(t *testing.T) {
	ts := newTestServer(t)
	adminID, owner := uuid.NewString(), uuid.NewString()

	rec := ts.do(t, http.MethodPost, "/admin/orders", adminID, RoleAdmin, orderInput())
	require.Equal(t, http.StatusCreated, rec.Code)
	guest := decodeBody[orders.Order](t, rec)
	assert.Empty(t, guest.UserID, "admin orders belong to no user")
	assert.Len(t, ts.created.sent(), 1)

	rec = ts.do(t, http.MethodPost, "/orders", owner, "", orderInput())
	require.Equal(t, http.StatusCreated, rec.Code)
	mine := decodeBody[orders.Order](t, rec)

	rec = ts.do(t, http.MethodGet, "/admin/orders", adminID, RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]orders.Order](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/admin/orders/"+mine.ID, adminID, RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, owner, decodeBody[orders.Order](t, rec).UserID)

	rec = ts.do(t, http.MethodPut, "/admin/orders/"+mine.ID+"/status", adminID, RoleAdmin, UpdateStatusReq{Status: "shipped"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusShipped, decodeBody[orders.Order](t, rec).Status)
	require.Len(t, ts.statuses.sent(), 1)

	// The owner now reads the status the admin set from the cache.
	rec = ts.do(t, http.MethodGet, "/orders/"+mine.ID+"/status", owner, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[OrderStatusResp](t, rec)
	assert.Equal(t, "shipped", st.Status)
	assert.True(t, st.Cached)

	rec = ts.do(t, http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", adminID, RoleAdmin, UpdateStatusReq{Status: "shipped"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
