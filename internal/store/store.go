// Package store defines the persistence ports used by the services and their
// MongoDB implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("store: conflicting concurrent write")
)

// StockError reports the product whose stock could not cover an order.
type StockError struct {
	ProductID primitive.ObjectID
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("store: insufficient stock for product %s (requested %d)", e.ProductID.Hex(), e.Requested)
}

type Page struct {
	Page  int64
	Limit int64
}

// Skip saturates at math.MaxInt64 instead of overflowing.
func (p Page) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.Limit {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.Limit
}

type Accounts interface {
	// Create inserts the account and sets its ID. Phone or email collisions
	// return ErrDuplicate.
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

type Shops interface {
	// Create inserts the shop; an owner that already has a shop gets ErrDuplicate.
	Create(ctx context.Context, shop *models.Shop) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	// ListByOwner returns at most limit shops owned by ownerID.
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID, limit int64) ([]models.Shop, error)
}

type ProductFilter struct {
	ShopID     *primitive.ObjectID
	Category   models.Category
	ActiveOnly bool
	Page       Page
}

type Products interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

type Addresses interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error)
	FindDefault(ctx context.Context, userID primitive.ObjectID) (*models.Address, error)
	// Save inserts the address when its ID is zero and replaces it otherwise.
	// When the address is default, every other default address of the same
	// user is demoted in the same atomic unit. A lost race against another
	// default write returns ErrConflict.
	Save(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderFilter struct {
	CustomerID *primitive.ObjectID
	Status     models.OrderStatus
	Page       Page
}

// StatusUpdate moves an order from one status to another. It only applies
// while the stored status still equals From.
type StatusUpdate struct {
	From    models.OrderStatus
	To      models.OrderStatus
	At      time.Time
	Restock bool
}

type Orders interface {
	// Place reserves stock for every item and inserts the order as one unit.
	// A short item returns *StockError and nothing is written.
	Place(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// UpdateStatus returns ErrConflict when the stored status is no longer From.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, update StatusUpdate) (*models.Order, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int64) ([]models.Order, error)
}

// Stores bundles one implementation of every port.
type Stores struct {
	Accounts  Accounts
	Shops     Shops
	Products  Products
	Addresses Addresses
	Orders    Orders
}

// ApplyStatusUpdate stamps the status and the timestamps that belong to the
// target status onto order.
func ApplyStatusUpdate(order *models.Order, update StatusUpdate) {
	at := update.At
	order.Status = update.To
	order.UpdatedAt = at
	switch update.To {
	case models.StatusConfirmed:
		order.AcceptedAt = &at
	case models.StatusDelivered:
		order.DeliveredAt = &at
	case models.StatusCancelled:
		order.CancelledAt = &at
	}
}
