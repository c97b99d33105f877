// Package memstore holds in-memory implementations of the store ports. They
// keep the same uniqueness, stock and compare-and-set rules as the MongoDB
// adapters and are used by tests and local tooling.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type state struct {
	mu sync.RWMutex

	accounts  map[primitive.ObjectID]models.Account
	shops     map[primitive.ObjectID]models.Shop
	products  map[primitive.ObjectID]models.Product
	addresses map[primitive.ObjectID]models.Address
	orders    map[primitive.ObjectID]models.Order
}

// New returns a Stores bundle whose ports share one guarded state.
func New() store.Stores {
	s := &state{
		accounts:  make(map[primitive.ObjectID]models.Account),
		shops:     make(map[primitive.ObjectID]models.Shop),
		products:  make(map[primitive.ObjectID]models.Product),
		addresses: make(map[primitive.ObjectID]models.Address),
		orders:    make(map[primitive.ObjectID]models.Order),
	}
	return store.Stores{
		Accounts:  &accounts{s},
		Shops:     &shops{s},
		Products:  &products{s},
		Addresses: &addresses{s},
		Orders:    &orders{s},
	}
}

func paginate[T any](items []T, page store.Page) []T {
	if page.Limit <= 0 {
		return items
	}
	skip := page.Skip()
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := skip + page.Limit
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[skip:end]
}

type accounts struct{ *state }

func (s *accounts) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.accounts {
		if existing.Phone == account.Phone {
			return store.ErrDuplicate
		}
		if account.Email != "" && existing.Email == account.Email {
			return store.ErrDuplicate
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	s.state.accounts[account.ID] = *account
	return nil
}

func (s *accounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.state.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (s *accounts) FindByPhone(_ context.Context, phone string) (*models.Account, error) {
	return s.find(func(a models.Account) bool { return a.Phone == phone })
}

func (s *accounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	if email == "" {
		return nil, store.ErrNotFound
	}
	return s.find(func(a models.Account) bool { return a.Email == email })
}

func (s *accounts) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.accounts[account.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.state.accounts {
		if id == account.ID {
			continue
		}
		if existing.Phone == account.Phone || (account.Email != "" && existing.Email == account.Email) {
			return store.ErrDuplicate
		}
	}
	s.state.accounts[account.ID] = *account
	return nil
}

func (s *accounts) find(match func(models.Account) bool) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.state.accounts {
		if match(account) {
			return &account, nil
		}
	}
	return nil, store.ErrNotFound
}

type shops struct{ *state }

func (s *shops) Create(_ context.Context, shop *models.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.shops {
		if existing.OwnerID == shop.OwnerID {
			return store.ErrDuplicate
		}
	}
	if shop.ID.IsZero() {
		shop.ID = primitive.NewObjectID()
	}
	s.state.shops[shop.ID] = *shop
	return nil
}

// ForceInsertShop stores shop without the one-per-owner check, so tests can
// build states the MongoDB unique index would reject. stores must come from New.
func ForceInsertShop(stores store.Stores, shop models.Shop) primitive.ObjectID {
	s := stores.Shops.(*shops)
	s.mu.Lock()
	defer s.mu.Unlock()

	if shop.ID.IsZero() {
		shop.ID = primitive.NewObjectID()
	}
	s.state.shops[shop.ID] = shop
	return shop.ID
}

func (s *shops) FindByID(_ context.Context, id primitive.ObjectID) (*models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shop, ok := s.state.shops[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &shop, nil
}

func (s *shops) ListByOwner(_ context.Context, ownerID primitive.ObjectID, limit int64) ([]models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Shop, 0)
	for _, shop := range s.state.shops {
		if shop.OwnerID == ownerID {
			out = append(out, shop)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type products struct{ *state }

func (s *products) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	stored := *product
	stored.Sizes = append(models.SizeList(nil), product.Sizes...)
	s.state.products[product.ID] = stored
	return nil
}

func (s *products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.state.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.InStock = product.Stock > 0
	return &product, nil
}

func (s *products) List(_ context.Context, filter store.ProductFilter) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, product := range s.state.products {
		if filter.ShopID != nil && product.ShopID != *filter.ShopID {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !product.IsActive {
			continue
		}
		product.InStock = product.Stock > 0
		out = append(out, product)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page), int64(len(out)), nil
}

type addresses struct{ *state }

func (s *addresses) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Address, 0)
	for _, address := range s.state.addresses {
		if address.UserID == userID {
			out = append(out, address)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *addresses) FindByID(_ context.Context, id primitive.ObjectID) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.state.addresses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &address, nil
}

func (s *addresses) FindDefault(_ context.Context, userID primitive.ObjectID) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, address := range s.state.addresses {
		if address.UserID == userID && address.IsDefault {
			return &address, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *addresses) Save(_ context.Context, address *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !address.ID.IsZero() {
		existing, ok := s.state.addresses[address.ID]
		if !ok || existing.UserID != address.UserID {
			return store.ErrNotFound
		}
	} else {
		address.ID = primitive.NewObjectID()
	}

	if address.IsDefault {
		for id, other := range s.state.addresses {
			if id != address.ID && other.UserID == address.UserID && other.IsDefault {
				other.IsDefault = false
				other.UpdatedAt = address.UpdatedAt
				s.state.addresses[id] = other
			}
		}
	}
	s.state.addresses[address.ID] = *address
	return nil
}

func (s *addresses) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.addresses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.state.addresses, id)
	return nil
}

type orders struct{ *state }

func (s *orders) Place(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[primitive.ObjectID]int, len(order.Items))
	for _, item := range order.Items {
		requested[item.ProductID] += item.Quantity
		product, ok := s.state.products[item.ProductID]
		if !ok || !product.IsActive || product.Stock < requested[item.ProductID] {
			return &store.StockError{ProductID: item.ProductID, Requested: item.Quantity}
		}
	}
	for id, qty := range requested {
		product := s.state.products[id]
		product.Stock -= qty
		s.state.products[id] = product
	}

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.state.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (s *orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.state.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order = cloneOrder(order)
	return &order, nil
}

func (s *orders) List(_ context.Context, filter store.OrderFilter) ([]models.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, order := range s.state.orders {
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(order))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page), int64(len(out)), nil
}

func (s *orders) UpdateStatus(_ context.Context, id primitive.ObjectID, update store.StatusUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.state.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.Status != update.From {
		return nil, store.ErrConflict
	}

	store.ApplyStatusUpdate(&order, update)
	if update.Restock {
		for _, item := range order.Items {
			if product, ok := s.state.products[item.ProductID]; ok {
				product.Stock += item.Quantity
				s.state.products[item.ProductID] = product
			}
		}
	}
	s.state.orders[id] = order

	out := cloneOrder(order)
	return &out, nil
}

func (s *orders) ListExpiredPending(_ context.Context, now time.Time, limit int64) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, order := range s.state.orders {
		if order.Status == models.StatusPending && !order.ExpiresAt.After(now) {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return order
}
