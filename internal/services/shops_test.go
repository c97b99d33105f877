package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store/memstore"
)

func TestCreateShop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "+923000000010", models.RoleShopOwner)
	customer := h.register(t, "+923000000011", models.RoleCustomer)

	shop, err := h.Shops.CreateShop(ctx, owner, CreateShopInput{Name: " Bazaar ", Location: "Lahore", Tags: []string{"shoes"}})
	require.NoError(t, err)
	assert.Equal(t, "Bazaar", shop.Name)
	assert.True(t, shop.IsActive)

	_, err = h.Shops.CreateShop(ctx, owner, CreateShopInput{Name: "Second", Location: "Lahore"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	_, err = h.Shops.CreateShop(ctx, customer, CreateShopInput{Name: "Nope", Location: "Lahore"})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	got, err := h.Shops.GetShop(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)

	_, err = h.Shops.GetShop(ctx, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestShopOwnedBy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "+923000000012", models.RoleShopOwner)

	_, err := h.Shops.ShopOwnedBy(ctx, owner)
	assert.True(t, apperr.Is(err, apperr.ShopNotFound))

	memstore.ForceInsertShop(h.stores, models.Shop{OwnerID: owner.ID, Name: "one"})
	shop, err := h.Shops.ShopOwnedBy(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "one", shop.Name)

	memstore.ForceInsertShop(h.stores, models.Shop{OwnerID: owner.ID, Name: "two"})
	_, err = h.Shops.ShopOwnedBy(ctx, owner)
	assert.True(t, apperr.Is(err, apperr.MultipleShopsUnsupported))
}
