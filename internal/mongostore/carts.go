package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CartRepo stores one document per user keyed by the user id.
type CartRepo struct{ Coll *mongo.Collection }

func (r *CartRepo) FindByUser(ctx context.Context, userID string) (cart.Cart, error) {
	var d cartDoc
	err := r.Coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return cart.Cart{}, apperr.NotFound(apperr.MsgCartNotFound)
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("find cart: %w", err)
	}
	return d.cart()
}

// Create inserts the cart; when a concurrent request won the race the
// stored cart is returned instead.
func (r *CartRepo) Create(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	d, err := newCartDoc(c)
	if err != nil {
		return cart.Cart{}, err
	}
	_, err = r.Coll.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return r.FindByUser(ctx, c.UserID)
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

func (r *CartRepo) Save(ctx context.Context, c cart.Cart) error {
	d, err := newCartDoc(c)
	if err != nil {
		return err
	}
	res, err := r.Coll.ReplaceOne(ctx, bson.M{"_id": c.UserID}, d)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(apperr.MsgCartNotFound)
	}
	return nil
}
