package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepo struct{ Coll *mongo.Collection }

func (r *ProductRepo) Get(ctx context.Context, id string) (catalog.Product, error) {
	var d productDoc
	err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("get product: %w", err)
	}
	return d.product()
}

func listFilter(f catalog.Filter) (bson.M, error) {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Search != "" {
		re := ciRegex(f.Search)
		q["$or"] = bson.A{bson.M{"name": re}, bson.M{"description": re}}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		v, err := toDec128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if f.MaxPrice != nil {
		v, err := toDec128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		q["price"] = price
	}
	if f.Featured {
		q["featured"] = true
	}
	if f.ExcludeID != "" {
		q["_id"] = bson.M{"$ne": f.ExcludeID}
	}
	return q, nil
}

func listSort(f catalog.Filter) bson.D {
	dir := 1
	if f.Desc {
		dir = -1
	}
	switch f.SortBy {
	case catalog.SortPrice:
		return bson.D{{Key: "price", Value: dir}, {Key: "_id", Value: 1}}
	case catalog.SortName:
		return bson.D{{Key: "name", Value: dir}, {Key: "_id", Value: 1}}
	case catalog.SortNewest:
		return bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func (r *ProductRepo) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	q, err := listFilter(f)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(listSort(f))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return r.find(ctx, q, opts)
}

func (r *ProductRepo) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]catalog.Product, error) {
	cur, err := r.Coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]catalog.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	d, err := newProductDoc(p)
	if err != nil {
		return catalog.Product{}, err
	}
	if _, err := r.Coll.InsertOne(ctx, d); err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	return d.product()
}

func (r *ProductRepo) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	d, err := newProductDoc(p)
	if err != nil {
		return catalog.Product{}, err
	}
	res, err := r.Coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, d)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return d.product()
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	return nil
}

// AdjustStock applies delta with a single conditional $inc so concurrent
// adjustments cannot drive stock below zero.
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int) (catalog.Product, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	var d productDoc
	err := r.Coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.Coll.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return catalog.Product{}, fmt.Errorf("adjust stock: %w", cerr)
		}
		if n == 0 {
			return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
		}
		return catalog.Product{}, apperr.Validation(apperr.MsgInsufficientStock)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("adjust stock: %w", err)
	}
	return d.product()
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return int(n), nil
}

func (r *ProductRepo) TopByStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "stock", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// AddReview appends the review and recomputes numReviews and rating in one
// pipeline update, matching only products the user has not reviewed yet.
func (r *ProductRepo) AddReview(ctx context.Context, id string, rv catalog.Review) (catalog.Product, error) {
	filter := bson.M{"_id": id, "reviews.userId": bson.M{"$ne": rv.UserID}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{reviewDoc(rv)},
			}},
			"updatedAt": rv.Date,
		}}},
		{{Key: "$set", Value: bson.M{
			"numReviews": bson.M{"$size": "$reviews"},
			"rating":     bson.M{"$round": bson.A{bson.M{"$avg": "$reviews.rating"}, 2}},
		}}},
	}
	var d productDoc
	err := r.Coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.Coll.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return catalog.Product{}, fmt.Errorf("add review: %w", cerr)
		}
		if n == 0 {
			return catalog.Product{}, apperr.NotFound(apperr.MsgProductNotFound)
		}
		return catalog.Product{}, apperr.Conflict(catalog.MsgAlreadyReviewed)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("add review: %w", err)
	}
	return d.product()
}

func ciRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
