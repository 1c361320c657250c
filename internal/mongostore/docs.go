package mongostore

import (
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func toDec128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDec128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

type cartItemDoc struct {
	ProductID string                `bson:"productId"`
	Quantity  int                   `bson:"quantity"`
	Price     *primitive.Decimal128 `bson:"price,omitempty"`
	AddedAt   time.Time             `bson:"addedAt,omitempty"`
}

type cartDoc struct {
	UserID      string        `bson:"_id"`
	Items       []cartItemDoc `bson:"items"`
	LastUpdated time.Time     `bson:"lastUpdated"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func newCartDoc(c cart.Cart) (cartDoc, error) {
	d := cartDoc{
		UserID:      c.UserID,
		Items:       make([]cartItemDoc, 0, len(c.Items)),
		LastUpdated: c.LastUpdated,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, it := range c.Items {
		doc := cartItemDoc{ProductID: it.ProductID, Quantity: it.Quantity, AddedAt: it.AddedAt}
		if it.Price != nil {
			p, err := toDec128(*it.Price)
			if err != nil {
				return cartDoc{}, err
			}
			doc.Price = &p
		}
		d.Items = append(d.Items, doc)
	}
	return d, nil
}

func (d cartDoc) cart() (cart.Cart, error) {
	c := cart.Cart{
		UserID:      d.UserID,
		Items:       make([]cart.Item, 0, len(d.Items)),
		LastUpdated: d.LastUpdated,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, it := range d.Items {
		item := cart.Item{ProductID: it.ProductID, Quantity: it.Quantity, AddedAt: it.AddedAt}
		if it.Price != nil {
			p, err := fromDec128(*it.Price)
			if err != nil {
				return cart.Cart{}, err
			}
			item.Price = &p
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}

type productDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int                  `bson:"stock"`
	Images      []string             `bson:"images"`
	Featured    bool                 `bson:"featured"`
	Rating      float64              `bson:"rating"`
	NumReviews  int                  `bson:"numReviews"`
	Reviews     []reviewDoc          `bson:"reviews"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type reviewDoc struct {
	UserID  string    `bson:"userId"`
	Rating  int       `bson:"rating"`
	Comment string    `bson:"comment"`
	Date    time.Time `bson:"date"`
}

func newProductDoc(p catalog.Product) (productDoc, error) {
	price, err := toDec128(p.Price)
	if err != nil {
		return productDoc{}, err
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	reviews := make([]reviewDoc, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, reviewDoc(r))
	}
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       price,
		Stock:       p.Stock,
		Images:      images,
		Featured:    p.Featured,
		Rating:      p.Rating,
		NumReviews:  p.NumReviews,
		Reviews:     reviews,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d productDoc) product() (catalog.Product, error) {
	price, err := fromDec128(d.Price)
	if err != nil {
		return catalog.Product{}, err
	}
	reviews := make([]catalog.Review, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews = append(reviews, catalog.Review(r))
	}
	return catalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       price,
		Stock:       d.Stock,
		Images:      d.Images,
		Featured:    d.Featured,
		Rating:      d.Rating,
		NumReviews:  d.NumReviews,
		Reviews:     reviews,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type orderItemDoc struct {
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image,omitempty"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"userId,omitempty"`
	Items           []orderItemDoc       `bson:"items"`
	ShippingAddress orders.Address       `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	Status          string               `bson:"status"`
	Total           primitive.Decimal128 `bson:"total"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func newOrderDoc(o orders.Order) (orderDoc, error) {
	total, err := toDec128(o.Total)
	if err != nil {
		return orderDoc{}, err
	}
	d := orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           make([]orderItemDoc, 0, len(o.Items)),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Status:          string(o.Status),
		Total:           total,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		price, err := toDec128(it.Price)
		if err != nil {
			return orderDoc{}, err
		}
		d.Items = append(d.Items, orderItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     price,
			Image:     it.Image,
		})
	}
	return d, nil
}

func (d orderDoc) order() (orders.Order, error) {
	total, err := fromDec128(d.Total)
	if err != nil {
		return orders.Order{}, err
	}
	o := orders.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		Items:           make([]orders.Item, 0, len(d.Items)),
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
		Status:          orders.Status(d.Status),
		Total:           total,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := fromDec128(it.Price)
		if err != nil {
			return orders.Order{}, err
		}
		o.Items = append(o.Items, orders.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     price,
			Image:     it.Image,
		})
	}
	return o, nil
}
