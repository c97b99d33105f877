package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"marketplace/internal/models"
)

type mongoAccounts struct {
	coll *mongo.Collection
}

func (s *mongoAccounts) Create(ctx context.Context, account *models.Account) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, account)
	return translate(err)
}

func (s *mongoAccounts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoAccounts) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"phone": phone})
}

func (s *mongoAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoAccounts) Update(ctx context.Context, account *models.Account) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": account.ID}, account)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoAccounts) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var account models.Account
	if err := s.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translate(err)
	}
	return &account, nil
}
