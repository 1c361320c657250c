package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxItemQuantity = 10
	MaxCartItems    = 20

	// PriceStaleAfter is how long a cart may go untouched before Total
	// re-checks the joined prices against the catalog.
	PriceStaleAfter = time.Hour
)

// Item is a persisted cart line. ProductID is unique within a cart.
type Item struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	AddedAt   time.Time        `json:"addedAt"`
}

type Cart struct {
	UserID      string    `json:"userId"`
	Items       []Item    `json:"items"`
	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch(now time.Time) {
	c.LastUpdated = now
	c.UpdatedAt = now
}

// ProductSummary is the slice of catalog data joined into a cart line.
type ProductSummary struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
	Stock int             `json:"stock"`
}

// Line is a cart line with its product joined in. Product is nil when the
// product no longer exists.
type Line struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	AddedAt   time.Time        `json:"addedAt"`
	Product   *ProductSummary  `json:"product"`
}

// View is what the cart operations return to callers.
type View struct {
	UserID      string    `json:"userId"`
	Items       []Line    `json:"items"`
	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Total sums live price × quantity over lines whose product still exists.
func (v View) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Items {
		if l.Product == nil {
			continue
		}
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
