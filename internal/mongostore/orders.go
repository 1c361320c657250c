package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepo struct{ Coll *mongo.Collection }

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (r *OrderRepo) Insert(ctx context.Context, o orders.Order) error {
	d, err := newOrderDoc(o)
	if err != nil {
		return err
	}
	if _, err := r.Coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (orders.Order, error) {
	var d orderDoc
	err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return orders.Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("find order: %w", err)
	}
	return d.order()
}

func (r *OrderRepo) FindByUser(ctx context.Context, userID string, status orders.Status) ([]orders.Order, error) {
	q := bson.M{"userId": userID}
	if status != "" {
		q["status"] = string(status)
	}
	return r.find(ctx, q, options.Find().SetSort(newestFirst))
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, userID string, status orders.Status, at time.Time) (orders.Order, error) {
	filter := bson.M{"_id": id}
	if userID != "" {
		filter["userId"] = userID
	}
	var d orderDoc
	err := r.Coll.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return orders.Order{}, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return d.order()
}

func (r *OrderRepo) List(ctx context.Context, limit int) ([]orders.Order, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int(n), nil
}

func (r *OrderRepo) Revenue(ctx context.Context, exclude orders.Status) (decimal.Decimal, error) {
	cur, err := r.Coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": string(exclude)}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "sum": bson.M{"$sum": "$total"}}}},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	var rows []struct {
		Sum primitive.Decimal128 `bson:"sum"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return fromDec128(rows[0].Sum)
}

func (r *OrderRepo) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]orders.Order, error) {
	cur, err := r.Coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]orders.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.order()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
