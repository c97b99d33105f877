package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type mongoShops struct {
	coll *mongo.Collection
}

func (s *mongoShops) Create(ctx context.Context, shop *models.Shop) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if shop.ID.IsZero() {
		shop.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, shop)
	return translate(err)
}

func (s *mongoShops) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var shop models.Shop
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&shop); err != nil {
		return nil, translate(err)
	}
	return &shop, nil
}

func (s *mongoShops) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, limit int64) ([]models.Shop, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	shops := make([]models.Shop, 0)
	if err := cursor.All(ctx, &shops); err != nil {
		return nil, err
	}
	return shops, nil
}
