package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AccountsCollection  = "accounts"
	ShopsCollection     = "shops"
	ProductsCollection  = "products"
	AddressesCollection = "addresses"
	OrdersCollection    = "orders"

	opTimeout = 5 * time.Second
)

// NewMongo wires every port to collections of db. Multi-document writes use
// transactions, so db must belong to a replica set or sharded cluster.
func NewMongo(db *mongo.Database) Stores {
	return Stores{
		Accounts:  &mongoAccounts{coll: db.Collection(AccountsCollection)},
		Shops:     &mongoShops{coll: db.Collection(ShopsCollection)},
		Products:  &mongoProducts{coll: db.Collection(ProductsCollection)},
		Addresses: &mongoAddresses{db: db, coll: db.Collection(AddressesCollection)},
		Orders: &mongoOrders{
			db:       db,
			coll:     db.Collection(OrdersCollection),
			products: db.Collection(ProductsCollection),
		},
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

func inTransaction(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func findPage(ctx context.Context, coll *mongo.Collection, filter bson.M, page Page, out interface{}) (int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(page.Skip()).SetLimit(page.Limit)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}
