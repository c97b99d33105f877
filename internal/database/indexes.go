package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"marketplace/internal/store"
)

// OneDefaultPerUserIndex is the partial unique index that allows a single
// isDefault address per user.
const OneDefaultPerUserIndex = "one_default_per_user"

// Indexes returns the index models of every collection, keyed by collection.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		store.AccountsCollection: {
			{
				Keys:    bson.D{{Key: "phone", Value: 1}},
				Options: options.Index().SetName("phone_unique").SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().
					SetName("email_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{
						"email": bson.M{"$exists": true, "$type": "string"},
					}),
			},
		},
		store.ShopsCollection: {
			{
				Keys:    bson.D{{Key: "ownerId", Value: 1}},
				Options: options.Index().SetName("ownerId_unique").SetUnique(true),
			},
		},
		store.ProductsCollection: {
			{
				Keys:    bson.D{{Key: "shopId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("shopId_createdAt"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
				Options: options.Index().SetName("category_isActive"),
			},
		},
		store.AddressesCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("userId_createdAt"),
			},
			{
				Keys: bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().
					SetName(OneDefaultPerUserIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isDefault": true}),
			},
		},
		store.OrdersCollection: {
			{
				Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("customerId_createdAt"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
				Options: options.Index().SetName("status_expiresAt"),
			},
		},
	}
}

// EnsureIndexes creates every index and returns the joined failures. Existing
// indexes with the same definition are left alone by the server.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var errs []error
	for collection, models := range Indexes() {
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		names, err := db.Collection(collection).Indexes().CreateMany(indexCtx, models)
		cancel()
		if err != nil {
			log.Error("index creation failed", zap.String("collection", collection), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s indexes: %w", collection, err))
			continue
		}
		log.Info("indexes ensured", zap.String("collection", collection), zap.Strings("indexes", names))
	}
	return errors.Join(errs...)
}
