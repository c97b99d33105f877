package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
	"marketplace/internal/media"
	"marketplace/internal/metrics"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

const compensationTimeout = 10 * time.Second

type ProductService struct {
	products      store.Products
	shops         *ShopService
	media         media.Store
	maxImageBytes int64
	validate      *validator.Validate
	metrics       *metrics.Metrics
	log           *zap.Logger
	now           func() time.Time
}

type CreateProductInput struct {
	Name          string          `validate:"required,max=200"`
	Price         float64         `validate:"gte=0"`
	OriginalPrice *float64        `validate:"omitempty,gte=0"`
	Description   string          `validate:"max=2000"`
	Sizes         models.SizeList `validate:"max=6,dive,size"`
	Stock         int             `validate:"gte=0"`
	Category      models.Category `validate:"required,category"`
	// IsActive defaults to true.
	IsActive *bool
}

type ProductQuery struct {
	ShopID   *primitive.ObjectID
	Category models.Category
	Page     store.Page
}

// CreateProduct stores image first and the product second. When the second
// step does not commit, the stored image is deleted before returning, on
// errors, panics and cancellation alike.
func (s *ProductService) CreateProduct(ctx context.Context, owner *models.Account, in CreateProductInput, image []byte) (product *models.Product, err error) {
	shop, err := s.shops.ShopOwnedBy(ctx, owner)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}
	if in.OriginalPrice != nil && *in.OriginalPrice < in.Price {
		return nil, apperr.New(apperr.Validation, "originalPrice must not be lower than price")
	}

	kind, err := media.DetectImage(image, s.maxImageBytes)
	if err != nil {
		return nil, err
	}

	ref, err := s.media.Save(ctx, kind, image)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "store image", err)
	}

	committed := false
	defer func() {
		if !committed {
			s.compensate(ctx, ref)
		}
	}()

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	sizes := in.Sizes
	if sizes == nil {
		sizes = models.SizeList{}
	}

	now := s.now()
	product = &models.Product{
		ShopID:        shop.ID,
		Name:          in.Name,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Description:   in.Description,
		ImagePath:     ref,
		Sizes:         sizes,
		Stock:         in.Stock,
		InStock:       in.Stock > 0,
		Category:      in.Category,
		IsActive:      isActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create product", err)
	}
	committed = true

	s.log.Info("product created",
		zap.String("productId", product.ID.Hex()),
		zap.String("shopId", shop.ID.Hex()),
		zap.String("image", ref),
	)
	return product, nil
}

// compensate deletes an image whose product was never written. Its failure
// is logged and counted and never replaces the caller's error.
func (s *ProductService) compensate(ctx context.Context, ref string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.media.Delete(cleanupCtx, ref); err != nil {
		s.metrics.MediaCompensations.WithLabelValues("failed").Inc()
		s.log.Error("orphaned product image", zap.String("image", ref), zap.Error(err))
		return
	}
	s.metrics.MediaCompensations.WithLabelValues("deleted").Inc()
	s.log.Warn("product image removed after failed create", zap.String("image", ref))
}

// GetProduct hides inactive products.
func (s *ProductService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "product not found")
	}
	if !product.IsActive {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	if q.Category != "" && !q.Category.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "unknown category %q", q.Category)
	}
	products, total, err := s.products.List(ctx, store.ProductFilter{
		ShopID:     q.ShopID,
		Category:   q.Category,
		ActiveOnly: true,
		Page:       q.Page,
	})
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "list products", err)
	}
	return products, total, nil
}
