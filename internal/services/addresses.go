package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

// AddressService keeps at most one default address per account. Writes for
// one account are serialized in process and the store applies the demotion
// and the write as one unit.
type AddressService struct {
	addresses store.Addresses
	locks     *keyedMutex
	validate  *validator.Validate
	log       *zap.Logger
	now       func() time.Time
}

type AddressInput struct {
	Label     string `json:"label" validate:"required,max=60"`
	Address   string `json:"address" validate:"required,max=500"`
	IsDefault bool   `json:"isDefault"`
}

func (s *AddressService) List(ctx context.Context, actor *models.Account) ([]models.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list addresses", err)
	}
	return addresses, nil
}

func (s *AddressService) Create(ctx context.Context, actor *models.Account, in AddressInput) (*models.Address, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(actor.ID)
	defer unlock()

	now := s.now()
	address := &models.Address{
		UserID:    actor.ID,
		Label:     in.Label,
		Address:   in.Address,
		IsDefault: in.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) Update(ctx context.Context, actor *models.Account, id primitive.ObjectID, in AddressInput) (*models.Address, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(actor.ID)
	defer unlock()

	address, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	address.Label = in.Label
	address.Address = in.Address
	address.IsDefault = in.IsDefault
	address.UpdatedAt = s.now()

	if err := s.save(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// Delete never promotes another address when the default is removed.
func (s *AddressService) Delete(ctx context.Context, actor *models.Account, id primitive.ObjectID) error {
	unlock := s.locks.Lock(actor.ID)
	defer unlock()

	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.addresses.Delete(ctx, id); err != nil {
		return storeErr(err, "address not found")
	}
	return nil
}

// Owned returns the address when it belongs to actor.
func (s *AddressService) Owned(ctx context.Context, actor *models.Account, id primitive.ObjectID) (*models.Address, error) {
	return s.owned(ctx, actor, id)
}

func (s *AddressService) Default(ctx context.Context, userID primitive.ObjectID) (*models.Address, error) {
	address, err := s.addresses.FindDefault(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "no default address")
	}
	return address, nil
}

func (s *AddressService) owned(ctx context.Context, actor *models.Account, id primitive.ObjectID) (*models.Address, error) {
	address, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "address not found")
	}
	if address.UserID != actor.ID {
		return nil, apperr.New(apperr.Forbidden, "address belongs to another account")
	}
	return address, nil
}

func (s *AddressService) save(ctx context.Context, address *models.Address) error {
	err := s.addresses.Save(ctx, address)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		s.log.Warn("concurrent default address write", zap.String("userId", address.UserID.Hex()))
		return apperr.New(apperr.Conflict, "another default address was written concurrently, retry")
	default:
		return storeErr(err, "address not found")
	}
}

func (s *AddressService) clean(in AddressInput) (AddressInput, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.Address = strings.TrimSpace(in.Address)
	if err := validateInput(s.validate, in); err != nil {
		return AddressInput{}, err
	}
	return in, nil
}
