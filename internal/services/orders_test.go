package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
)

func inlineAddress() *DeliveryAddressInput {
	return &DeliveryAddressInput{Label: "home", Address: "12 Canal View, Lahore"}
}

func TestOrderScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Accounts.Register(ctx, RegisterInput{Name: "Sana", Phone: "+923000000001", Password: "secret12"})
	require.NoError(t, err)
	session, err := h.Accounts.Authenticate(ctx, "+923000000001", "secret12")
	require.NoError(t, err)
	customer := session.Account

	shirt := h.product(t, 1500, 10)
	shoes := h.product(t, 3000, 10)

	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: shirt.ID.Hex(), Quantity: 1},
			{ProductID: shoes.ID.Hex(), Quantity: 1},
		},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 4500.0, order.Subtotal)
	assert.Equal(t, 150.0, order.DeliveryFee)
	assert.Equal(t, 4650.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, h.clock.Now().Add(30*time.Minute), order.ExpiresAt)

	confirmed, err := h.Orders.Transition(ctx, customer, order.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.AcceptedAt)

	_, err = h.Orders.Transition(ctx, customer, order.ID, models.StatusDelivered)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.OrderTransitions.WithLabelValues("confirmed")))
}

func TestCreateOrderIgnoresClientPricesAndSnapshots(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000030", models.RoleCustomer)
	p := h.product(t, 99.99, 5)

	bogus := 1.0
	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 3}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCard,
		ClientTotal:     &bogus,
	})
	require.NoError(t, err)
	assert.Equal(t, 299.97, order.Subtotal)
	assert.Equal(t, 449.97, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 99.99, order.Items[0].Price)
	assert.Equal(t, "item", order.Items[0].Name)

	reloaded, err := h.stores.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestCreateOrderFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000031", models.RoleCustomer)
	p := h.product(t, 10, 1)

	_, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{PaymentMethod: models.PaymentCash, DeliveryAddress: inlineAddress()})
	assert.True(t, apperr.Is(err, apperr.EmptyOrder))

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 2}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.OutOfStock))

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: primitive.NewObjectID().Hex(), Quantity: 1}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: "not-an-id", Quantity: 1}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   "bitcoin",
	})
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:         []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
		PaymentMethod: models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.Validation), "no address of any kind")
}

func TestCreateOrderDeliveryAddressSources(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000032", models.RoleCustomer)
	other := h.register(t, "+923000000033", models.RoleCustomer)
	p := h.product(t, 10, 10)
	items := []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}}

	_, err := h.Addresses.Create(ctx, customer, AddressInput{Label: "home", Address: "Default St", IsDefault: true})
	require.NoError(t, err)
	office, err := h.Addresses.Create(ctx, customer, AddressInput{Label: "office", Address: "Office St"})
	require.NoError(t, err)
	foreign, err := h.Addresses.Create(ctx, other, AddressInput{Label: "theirs", Address: "Other St"})
	require.NoError(t, err)

	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{Items: items, PaymentMethod: models.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, "Default St", order.DeliveryAddress.Address)

	order, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{Items: items, AddressID: office.ID.Hex(), PaymentMethod: models.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, "Office St", order.DeliveryAddress.Address)

	_, err = h.Orders.CreateOrder(ctx, customer, CreateOrderInput{Items: items, AddressID: foreign.ID.Hex(), PaymentMethod: models.PaymentCash})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	// Later edits do not rewrite the snapshot.
	_, err = h.Addresses.Update(ctx, customer, office.ID, AddressInput{Label: "office", Address: "Moved St"})
	require.NoError(t, err)
	reloaded, err := h.Orders.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office St", reloaded.DeliveryAddress.Address)
}

func TestOrderOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.register(t, "+923000000034", models.RoleCustomer)
	b := h.register(t, "+923000000035", models.RoleCustomer)
	admin, _, err := h.Accounts.EnsureAdmin(ctx, "Admin", "+10000000002", "adminpass")
	require.NoError(t, err)
	p := h.product(t, 10, 10)

	order, err := h.Orders.CreateOrder(ctx, b, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)

	got, err := h.Orders.GetOrder(ctx, a, order.ID)
	assert.Nil(t, got)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = h.Orders.Transition(ctx, a, order.ID, models.StatusCancelled)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, _, err = h.Orders.ListOrders(ctx, a, OrderQuery{CustomerID: &b.ID})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	mine, total, err := h.Orders.ListOrders(ctx, a, OrderQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Zero(t, total)

	got, err = h.Orders.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	all, total, err := h.Orders.ListOrders(ctx, admin, OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, int64(1), total)

	_, err = h.Orders.GetOrder(ctx, a, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTransitionTable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000036", models.RoleCustomer)
	p := h.product(t, 10, 100)

	place := func() *models.Order {
		order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
			Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
			DeliveryAddress: inlineAddress(),
			PaymentMethod:   models.PaymentCash,
		})
		require.NoError(t, err)
		return order
	}

	order := place()
	_, err := h.Orders.Transition(ctx, customer, order.ID, models.StatusOutForDelivery)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition))

	for _, next := range []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered} {
		updated, err := h.Orders.Transition(ctx, customer, order.ID, next)
		require.NoError(t, err, next)
		assert.Equal(t, next, updated.Status)
	}
	delivered, err := h.Orders.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = h.Orders.Transition(ctx, customer, order.ID, models.StatusCancelled)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition), "delivered is terminal")

	_, err = h.Orders.Transition(ctx, customer, order.ID, "shipped")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestCancelRestoresStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000037", models.RoleCustomer)
	p := h.product(t, 10, 3)

	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 3}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)

	cancelled, err := h.Orders.Transition(ctx, customer, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	reloaded, err := h.stores.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000038", models.RoleCustomer)
	p := h.product(t, 10, 5)

	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Orders.Transition(ctx, customer, order.ID, models.StatusCancelled)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.Is(err, apperr.InvalidTransition):
				losses++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, losses)

	reloaded, err := h.stores.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock, "stock restored exactly once")
}

func TestExpiredPendingOrderCannotBeConfirmed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000038", models.RoleCustomer)
	p := h.product(t, 10, 5)

	order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 2}},
		DeliveryAddress: inlineAddress(),
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)

	h.clock.Advance(30 * time.Minute)
	_, err = h.Orders.Transition(ctx, customer, order.ID, models.StatusConfirmed)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition))

	cancelled, err := h.Orders.Transition(ctx, customer, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	reloaded, err := h.stores.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestExpireStale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, "+923000000039", models.RoleCustomer)
	p := h.product(t, 10, 5)

	create := func() *models.Order {
		order, err := h.Orders.CreateOrder(ctx, customer, CreateOrderInput{
			Items:           []OrderItemInput{{ProductID: p.ID.Hex(), Quantity: 1}},
			DeliveryAddress: inlineAddress(),
			PaymentMethod:   models.PaymentCash,
		})
		require.NoError(t, err)
		return order
	}
	stale := create()
	accepted := create()
	_, err := h.Orders.Transition(ctx, customer, accepted.ID, models.StatusConfirmed)
	require.NoError(t, err)

	n, err := h.Orders.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(31 * time.Minute)
	n, err = h.Orders.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := h.Orders.GetOrder(ctx, customer, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	got, err = h.Orders.GetOrder(ctx, customer, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	reloaded, err := h.stores.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Stock)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ExpiredOrdersCanceled))
}
