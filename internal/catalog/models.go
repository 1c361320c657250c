package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	Featured    bool            `json:"featured"`
	Rating      float64         `json:"rating"`
	NumReviews  int             `json:"numReviews"`
	Reviews     []Review        `json:"reviews"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Review struct {
	UserID  string    `json:"userId"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

// MsgAlreadyReviewed is returned as a Conflict for a second review by the
// same user.
const MsgAlreadyReviewed = "You have already reviewed this product"

// AddReview appends r and recomputes the average rating. A user may review
// a product once.
func (p *Product) AddReview(r Review) error {
	for _, existing := range p.Reviews {
		if existing.UserID == r.UserID {
			return apperr.Conflict(MsgAlreadyReviewed)
		}
	}
	p.Reviews = append(p.Reviews, r)
	sum := 0
	for _, rv := range p.Reviews {
		sum += rv.Rating
	}
	p.NumReviews = len(p.Reviews)
	p.Rating = math.Round(float64(sum)/float64(p.NumReviews)*100) / 100
	return nil
}

// Image returns the primary image, if any.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Sort keys accepted by List.
const (
	SortNewest = "newest"
	SortPrice  = "price"
	SortName   = "name"
)

// Result sizes of the fixed catalog listings.
const (
	FeaturedLimit = 10
	RelatedLimit  = 4
	SearchLimit   = 50
)

// Filter narrows List. Featured keeps featured products only; ExcludeID
// leaves one product out.
type Filter struct {
	Category  string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    string
	Desc      bool
	Limit     int
	Featured  bool
	ExcludeID string
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	Featured    bool            `json:"featured"`
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return apperr.Validation("category is required")
	}
	if err := apperr.CheckAmount("price", in.Price); err != nil {
		return err
	}
	if in.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	return nil
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (in ReviewInput) Validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	return nil
}
