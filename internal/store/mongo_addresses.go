package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type mongoAddresses struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func (s *mongoAddresses) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	addresses := make([]models.Address, 0)
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *mongoAddresses) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoAddresses) FindDefault(ctx context.Context, userID primitive.ObjectID) (*models.Address, error) {
	return s.findOne(ctx, bson.M{"userId": userID, "isDefault": true})
}

// Save runs the demotion and the write in one transaction. The partial unique
// index one_default_per_user rejects a second default that slips past it.
func (s *mongoAddresses) Save(ctx context.Context, address *models.Address) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	isNew := address.ID.IsZero()
	if isNew {
		address.ID = primitive.NewObjectID()
	}

	err := inTransaction(ctx, s.db, func(sc mongo.SessionContext) error {
		if address.IsDefault {
			_, err := s.coll.UpdateMany(sc, bson.M{
				"userId":    address.UserID,
				"isDefault": true,
				"_id":       bson.M{"$ne": address.ID},
			}, bson.M{"$set": bson.M{"isDefault": false, "updatedAt": address.UpdatedAt}})
			if err != nil {
				return err
			}
		}

		if isNew {
			_, err := s.coll.InsertOne(sc, address)
			return err
		}

		res, err := s.coll.ReplaceOne(sc, bson.M{"_id": address.ID, "userId": address.UserID}, address)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && isNew {
		address.ID = primitive.NilObjectID
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrConflict, err)
	default:
		return err
	}
}

func (s *mongoAddresses) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoAddresses) findOne(ctx context.Context, filter bson.M) (*models.Address, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var address models.Address
	if err := s.coll.FindOne(ctx, filter).Decode(&address); err != nil {
		return nil, translate(err)
	}
	return &address, nil
}
