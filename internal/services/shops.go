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

type ShopService struct {
	shops    store.Shops
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

type CreateShopInput struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Location string   `json:"location" validate:"required,max=300"`
	Tags     []string `json:"tags" validate:"max=20,dive,required,max=40"`
}

func (s *ShopService) CreateShop(ctx context.Context, owner *models.Account, in CreateShopInput) (*models.Shop, error) {
	if owner.Role != models.RoleShopOwner {
		return nil, apperr.New(apperr.Forbidden, "only shop owners can open a shop")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	for i := range in.Tags {
		in.Tags[i] = strings.TrimSpace(in.Tags[i])
	}
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.shops.ListByOwner(ctx, owner.ID, 1)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list shops", err)
	}
	if len(existing) > 0 {
		return nil, apperr.New(apperr.Conflict, "account already owns a shop")
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	now := s.now()
	shop := &models.Shop{
		OwnerID:   owner.ID,
		Name:      in.Name,
		Location:  in.Location,
		Tags:      tags,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.New(apperr.Conflict, "account already owns a shop")
		}
		return nil, apperr.Wrap(apperr.Internal, "create shop", err)
	}

	s.log.Info("shop created", zap.String("shopId", shop.ID.Hex()), zap.String("ownerId", owner.ID.Hex()))
	return shop, nil
}

// ShopOwnedBy resolves the single shop of owner. Owning more than one shop is
// reported instead of picking one.
func (s *ShopService) ShopOwnedBy(ctx context.Context, owner *models.Account) (*models.Shop, error) {
	shops, err := s.shops.ListByOwner(ctx, owner.ID, 2)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list shops", err)
	}
	switch len(shops) {
	case 0:
		return nil, apperr.New(apperr.ShopNotFound, "no shop found for this account")
	case 1:
		return &shops[0], nil
	default:
		s.log.Warn("owner has several shops", zap.String("ownerId", owner.ID.Hex()))
		return nil, apperr.New(apperr.MultipleShopsUnsupported, "account owns more than one shop")
	}
}

func (s *ShopService) GetShop(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "shop not found")
	}
	return shop, nil
}
