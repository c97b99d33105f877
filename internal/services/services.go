// Package services implements the marketplace operations on top of the store
// ports. Every method returns *apperr.Error values so the HTTP layer can map
// them without knowing about storage.
package services

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
	"marketplace/internal/auth"
	"marketplace/internal/media"
	"marketplace/internal/metrics"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

const defaultPendingTTL = 30 * time.Minute

type Options struct {
	DeliveryFee     float64
	PendingOrderTTL time.Duration
	MaxImageBytes   int64
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

type Services struct {
	Accounts  *AccountService
	Shops     *ShopService
	Addresses *AddressService
	Orders    *OrderService
	Products  *ProductService
}

func New(opts Options, stores store.Stores, hasher *auth.Hasher, tokens *auth.TokenService, images media.Store, m *metrics.Metrics, log *zap.Logger) *Services {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	pendingTTL := opts.PendingOrderTTL
	if pendingTTL <= 0 {
		pendingTTL = defaultPendingTTL
	}
	validate := NewValidator()

	shops := &ShopService{shops: stores.Shops, validate: validate, log: log.Named("shops"), now: now}
	addresses := &AddressService{
		addresses: stores.Addresses,
		locks:     newKeyedMutex(),
		validate:  validate,
		log:       log.Named("addresses"),
		now:       now,
	}

	return &Services{
		Accounts: &AccountService{
			accounts: stores.Accounts,
			hasher:   hasher,
			tokens:   tokens,
			validate: validate,
			log:      log.Named("accounts"),
			now:      now,
		},
		Shops:     shops,
		Addresses: addresses,
		Orders: &OrderService{
			orders:      stores.Orders,
			products:    stores.Products,
			addresses:   addresses,
			deliveryFee: decimal.NewFromFloat(opts.DeliveryFee),
			pendingTTL:  pendingTTL,
			validate:    validate,
			metrics:     m,
			log:         log.Named("orders"),
			now:         now,
		},
		Products: &ProductService{
			products:      stores.Products,
			shops:         shops,
			media:         images,
			maxImageBytes: opts.MaxImageBytes,
			validate:      validate,
			metrics:       m,
			log:           log.Named("products"),
			now:           now,
		},
	}
}

// NewValidator returns a validator with the marketplace enum tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidators adds the category and size tags to v.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("size", func(fl validator.FieldLevel) bool {
		return models.Size(fl.Field().String()).Valid()
	})
}

func validateInput(v *validator.Validate, in any) error {
	if err := v.Struct(in); err != nil {
		return apperr.FromValidation(err)
	}
	return nil
}

// storeErr maps a store failure to an application error. notFound names the
// missing resource.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.NotFound, notFound)
	default:
		return apperr.Wrap(apperr.Internal, "storage failure", err)
	}
}
