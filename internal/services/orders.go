package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
	"marketplace/internal/metrics"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

const expirySweepBatch = 100

type OrderService struct {
	orders      store.Orders
	products    store.Products
	addresses   *AddressService
	deliveryFee decimal.Decimal
	pendingTTL  time.Duration
	validate    *validator.Validate
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

type OrderItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

type DeliveryAddressInput struct {
	Label   string `json:"label" validate:"max=60"`
	Address string `json:"address" validate:"required,max=500"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput      `json:"items" validate:"dive"`
	AddressID       string                `json:"addressId"`
	DeliveryAddress *DeliveryAddressInput `json:"deliveryAddress"`
	PaymentMethod   models.PaymentMethod  `json:"paymentMethod" validate:"required,oneof=cash card"`
	// ClientTotal is the total the client displayed. It is only compared
	// against the computed total for logging.
	ClientTotal *float64 `json:"total"`
}

type OrderQuery struct {
	CustomerID *primitive.ObjectID
	Status     models.OrderStatus
	Page       store.Page
}

func (s *OrderService) CreateOrder(ctx context.Context, customer *models.Account, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.EmptyOrder, "order must contain at least one item")
	}
	if in.DeliveryAddress != nil {
		in.DeliveryAddress.Label = strings.TrimSpace(in.DeliveryAddress.Label)
		in.DeliveryAddress.Address = strings.TrimSpace(in.DeliveryAddress.Address)
	}
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	items, subtotal, err := s.snapshotItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	total := subtotal.Add(s.deliveryFee).Round(2)

	if in.ClientTotal != nil && !decimal.NewFromFloat(*in.ClientTotal).Round(2).Equal(total) {
		s.log.Info("client total differs from computed total",
			zap.String("customerId", customer.ID.Hex()),
			zap.Float64("clientTotal", *in.ClientTotal),
			zap.String("total", total.StringFixed(2)),
		)
	}

	delivery, err := s.resolveDeliveryAddress(ctx, customer, in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		CustomerID:      customer.ID,
		Items:           items,
		Subtotal:        subtotal.Round(2).InexactFloat64(),
		DeliveryFee:     s.deliveryFee.Round(2).InexactFloat64(),
		Total:           total.InexactFloat64(),
		Status:          models.StatusPending,
		DeliveryAddress: delivery,
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(s.pendingTTL),
	}

	if err := s.orders.Place(ctx, order); err != nil {
		var stockErr *store.StockError
		if errors.As(err, &stockErr) {
			return nil, apperr.Newf(apperr.OutOfStock, "insufficient stock for product %s", stockErr.ProductID.Hex())
		}
		return nil, apperr.Wrap(apperr.Internal, "place order", err)
	}

	s.log.Info("order placed",
		zap.String("orderId", order.ID.Hex()),
		zap.String("customerId", customer.ID.Hex()),
		zap.String("total", total.StringFixed(2)),
	)
	return order, nil
}

// Transition moves the order to target when actor owns it or is an admin and
// the state table allows the edge. A concurrent transition that wins first
// makes this one fail with InvalidTransition.
func (s *OrderService) Transition(ctx context.Context, actor *models.Account, id primitive.ObjectID, target models.OrderStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, apperr.Newf(apperr.Validation, "unknown order status %q", target)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order not found")
	}
	if !canAccessOrder(actor, order) {
		return nil, apperr.New(apperr.Forbidden, "order belongs to another account")
	}
	return s.apply(ctx, order, target)
}

func (s *OrderService) GetOrder(ctx context.Context, actor *models.Account, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order not found")
	}
	if !canAccessOrder(actor, order) {
		return nil, apperr.New(apperr.Forbidden, "order belongs to another account")
	}
	return order, nil
}

// ListOrders lists actor's own orders. Admins may list any customer's orders
// or every order when CustomerID is nil.
func (s *OrderService) ListOrders(ctx context.Context, actor *models.Account, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "unknown order status %q", q.Status)
	}
	if !actor.IsAdmin() {
		if q.CustomerID != nil && *q.CustomerID != actor.ID {
			return nil, 0, apperr.New(apperr.Forbidden, "cannot list another account's orders")
		}
		id := actor.ID
		q.CustomerID = &id
	}

	orders, total, err := s.orders.List(ctx, store.OrderFilter{CustomerID: q.CustomerID, Status: q.Status, Page: q.Page})
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	return orders, total, nil
}

// ExpireStale cancels pending orders whose expiry has passed and returns how
// many it cancelled.
func (s *OrderService) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.orders.ListExpiredPending(ctx, s.now(), expirySweepBatch)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "list expired orders", err)
	}

	cancelled := 0
	for i := range expired {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		_, err := s.apply(ctx, &expired[i], models.StatusCancelled)
		switch {
		case err == nil:
			cancelled++
			s.metrics.ExpiredOrdersCanceled.Inc()
		case apperr.Is(err, apperr.InvalidTransition):
			// Confirmed or cancelled by someone else since the listing.
		default:
			s.log.Error("expire order failed", zap.String("orderId", expired[i].ID.Hex()), zap.Error(err))
		}
	}
	return cancelled, nil
}

func (s *OrderService) apply(ctx context.Context, order *models.Order, target models.OrderStatus) (*models.Order, error) {
	if !order.Status.CanTransitionTo(target) {
		return nil, apperr.Newf(apperr.InvalidTransition, "cannot move order from %s to %s", order.Status, target)
	}
	// An expired pending order may only be cancelled, even before the sweep reaches it.
	if order.Status == models.StatusPending && target != models.StatusCancelled &&
		!order.ExpiresAt.IsZero() && !s.now().Before(order.ExpiresAt) {
		return nil, apperr.New(apperr.InvalidTransition, "order expired before it was confirmed")
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, store.StatusUpdate{
		From:    order.Status,
		To:      target,
		At:      s.now(),
		Restock: target == models.StatusCancelled,
	})
	switch {
	case errors.Is(err, store.ErrConflict):
		return nil, apperr.New(apperr.InvalidTransition, "order status changed concurrently")
	case err != nil:
		return nil, storeErr(err, "order not found")
	}

	s.metrics.OrderTransitions.WithLabelValues(string(target)).Inc()
	s.log.Info("order status changed",
		zap.String("orderId", order.ID.Hex()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
	)
	return updated, nil
}

func (s *OrderService) snapshotItems(ctx context.Context, inputs []OrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := decimal.Zero

	for i, in := range inputs {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ProductID))
		if err != nil {
			return nil, decimal.Zero, &apperr.Error{
				Kind:    apperr.Validation,
				Message: "validation failed",
				Details: []string{fmt.Sprintf("items[%d].productId is invalid", i)},
			}
		}

		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, decimal.Zero, storeErr(err, fmt.Sprintf("product %s not found", productID.Hex()))
		}
		if !product.IsActive {
			return nil, decimal.Zero, apperr.Newf(apperr.Validation, "product %s is not available", productID.Hex())
		}

		price := decimal.NewFromFloat(product.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			ShopID:    product.ShopID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  in.Quantity,
		})
	}
	return items, subtotal, nil
}

func (s *OrderService) resolveDeliveryAddress(ctx context.Context, customer *models.Account, in CreateOrderInput) (models.DeliveryAddress, error) {
	if id := strings.TrimSpace(in.AddressID); id != "" {
		addressID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return models.DeliveryAddress{}, apperr.New(apperr.Validation, "addressId is invalid")
		}
		address, err := s.addresses.Owned(ctx, customer, addressID)
		if err != nil {
			return models.DeliveryAddress{}, err
		}
		return models.DeliveryAddress{Label: address.Label, Address: address.Address}, nil
	}

	if in.DeliveryAddress != nil {
		return models.DeliveryAddress{Label: in.DeliveryAddress.Label, Address: in.DeliveryAddress.Address}, nil
	}

	address, err := s.addresses.Default(ctx, customer.ID)
	if apperr.Is(err, apperr.NotFound) {
		return models.DeliveryAddress{}, apperr.New(apperr.Validation, "a delivery address is required")
	}
	if err != nil {
		return models.DeliveryAddress{}, err
	}
	return models.DeliveryAddress{Label: address.Label, Address: address.Address}, nil
}

func canAccessOrder(actor *models.Account, order *models.Order) bool {
	return actor.IsAdmin() || order.CustomerID == actor.ID
}
