package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type mongoOrders struct {
	db       *mongo.Database
	coll     *mongo.Collection
	products *mongo.Collection
}

func (s *mongoOrders) Place(ctx context.Context, order *models.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}

	return inTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		for _, item := range order.Items {
			res, err := s.products.UpdateOne(sc, bson.M{
				"_id":      item.ProductID,
				"isActive": true,
				"stock":    bson.M{"$gte": item.Quantity},
			}, bson.M{"$inc": bson.M{"stock": -item.Quantity}})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return &StockError{ProductID: item.ProductID, Requested: item.Quantity}
			}
		}

		_, err := s.coll.InsertOne(sc, order)
		return err
	})
}

func (s *mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *mongoOrders) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := bson.M{}
	if filter.CustomerID != nil {
		query["customerId"] = *filter.CustomerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	orders := make([]models.Order, 0)
	total, err := findPage(ctx, s.coll, query, filter.Page, &orders)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *mongoOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, update StatusUpdate) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updated models.Order
	err := inTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := s.coll.FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": update.From},
			bson.M{"$set": statusFields(update)},
			opts,
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if exists := s.coll.FindOne(sc, bson.M{"_id": id}).Err(); errors.Is(exists, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return ErrConflict
		}
		if err != nil {
			return err
		}

		if update.Restock {
			for _, item := range updated.Items {
				if _, err := s.products.UpdateOne(sc,
					bson.M{"_id": item.ProductID},
					bson.M{"$inc": bson.M{"stock": item.Quantity}},
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *mongoOrders) ListExpiredPending(ctx context.Context, now time.Time, limit int64) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "expiresAt", Value: 1}}).
		SetLimit(limit)
	cursor, err := s.coll.Find(ctx, bson.M{
		"status":    models.StatusPending,
		"expiresAt": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func statusFields(update StatusUpdate) bson.M {
	fields := bson.M{
		"status":    update.To,
		"updatedAt": update.At,
	}
	switch update.To {
	case models.StatusConfirmed:
		fields["acceptedAt"] = update.At
	case models.StatusDelivered:
		fields["deliveredAt"] = update.At
	case models.StatusCancelled:
		fields["cancelledAt"] = update.At
	}
	return fields
}
