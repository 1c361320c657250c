package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collCarts    = "carts"
	collOrders   = "orders"
	collProducts = "products"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(16))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// Store bundles the three repositories over one database.
type Store struct {
	Carts    *CartRepo
	Orders   *OrderRepo
	Products *ProductRepo
}

func New(db *mongo.Database) *Store {
	return &Store{
		Carts:    &CartRepo{Coll: db.Collection(collCarts)},
		Orders:   &OrderRepo{Coll: db.Collection(collOrders)},
		Products: &ProductRepo{Coll: db.Collection(collProducts)},
	}
}

// EnsureIndexes creates the secondary indexes the queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	idx := map[string][]mongo.IndexModel{
		collOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		collProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "stock", Value: -1}}},
		},
	}
	for coll, models := range idx {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
