package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketplace/internal/apperr"
	"marketplace/internal/media"
	"marketplace/internal/media/mock_media"
	"marketplace/internal/store"
)

const mockRef = "products/7d1c.png"

func TestCreateProductSaveFailureLeavesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	images := mock_media.NewMockStore(ctrl)

	h := newHarness(t)
	h.Products.media = images
	owner := openShop(t, h, "+923000000050")

	images.EXPECT().
		Save(gomock.Any(), media.Image{ContentType: "image/png", Extension: ".png"}, gomock.Any()).
		Return("", errors.New("bucket unavailable"))

	_, err := h.Products.CreateProduct(context.Background(), owner, validProduct(), pngImage(t))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Internal))

	_, total, err := h.stores.Products.List(context.Background(), store.ProductFilter{Page: store.Page{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateProductCountsFailedCompensation(t *testing.T) {
	ctrl := gomock.NewController(t)
	images := mock_media.NewMockStore(ctrl)

	failing := &failingProducts{createErr: errors.New("primary stepped down")}
	h := newHarness(t, withFailingProducts(failing))
	h.Products.media = images
	owner := openShop(t, h, "+923000000051")

	gomock.InOrder(
		images.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(mockRef, nil),
		images.EXPECT().Delete(gomock.Any(), mockRef).Return(errors.New("access denied")),
	)

	_, err := h.Products.CreateProduct(context.Background(), owner, validProduct(), pngImage(t))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Internal), "cleanup failure must not replace the create error")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MediaCompensations.WithLabelValues("failed")))
	assert.Zero(t, testutil.ToFloat64(h.metrics.MediaCompensations.WithLabelValues("deleted")))
}

func TestCreateProductCompensationOutlivesRequestContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	images := mock_media.NewMockStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	failing := &failingProducts{cancel: cancel}
	h := newHarness(t, withFailingProducts(failing))
	h.Products.media = images
	owner := openShop(t, h, "+923000000052")

	images.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(mockRef, nil)
	images.EXPECT().Delete(gomock.Any(), mockRef).DoAndReturn(func(ctx context.Context, _ string) error {
		return ctx.Err()
	})

	_, err := h.Products.CreateProduct(ctx, owner, validProduct(), pngImage(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MediaCompensations.WithLabelValues("deleted")))
}

func TestCreateProductCommittedKeepsImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	images := mock_media.NewMockStore(ctrl)

	h := newHarness(t)
	h.Products.media = images
	owner := openShop(t, h, "+923000000053")

	images.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(mockRef, nil)
	images.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	product, err := h.Products.CreateProduct(context.Background(), owner, validProduct(), pngImage(t))
	require.NoError(t, err)
	assert.Equal(t, mockRef, product.ImagePath)
}
