package orders

import (
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/shopspring/decimal"
)

// ErrEmptyOrder is a plain error, not an apperr kind. The HTTP layer maps it to 400.
var ErrEmptyOrder = errors.New("order must contain at least one item")

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Items           []Item          `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Status          Status          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ItemInput struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateInput struct {
	Items           []ItemInput `json:"items"`
	ShippingAddress Address     `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
}

// Validate reports ErrEmptyOrder before any field check.
func (in CreateInput) Validate() error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	a := in.ShippingAddress
	for _, f := range [...]struct{ name, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"country", a.Country},
		{"zipCode", a.ZipCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			return apperr.Validationf("shippingAddress.%s is required", f.name)
		}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return apperr.Validation("paymentMethod is required")
	}
	for _, it := range in.Items {
		if err := apperr.CheckIDs(it.ProductID); err != nil {
			return err
		}
		if it.Quantity < 1 {
			return apperr.Validation("quantity must be at least 1")
		}
		if err := apperr.CheckAmount("price", it.Price); err != nil {
			return err
		}
	}
	return nil
}

// Total sums the caller-supplied line prices.
func (in CreateInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type Stats struct {
	TotalOrders  int             `json:"totalOrders"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	StatusCounts map[Status]int  `json:"statusCounts"`
}

// ProductRef is the current catalog view of an ordered product.
type ProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

type HistoryLine struct {
	Product  *ProductRef     `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// HistoryEntry is an order whose lines carry live product details.
type HistoryEntry struct {
	Order
	Items []HistoryLine `json:"items"`
}
