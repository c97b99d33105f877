package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"marketplace/internal/models"
)

type mongoProducts struct {
	coll *mongo.Collection
}

func (s *mongoProducts) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, product)
	return translate(err)
}

func (s *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	product.InStock = product.Stock > 0
	return &product, nil
}

func (s *mongoProducts) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := bson.M{}
	if filter.ShopID != nil {
		query["shopId"] = *filter.ShopID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.ActiveOnly {
		query["isActive"] = true
	}

	products := make([]models.Product, 0)
	total, err := findPage(ctx, s.coll, query, filter.Page, &products)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].InStock = products[i].Stock > 0
	}
	return products, total, nil
}
