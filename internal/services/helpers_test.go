package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/auth"
	"marketplace/internal/media"
	"marketplace/internal/metrics"
	"marketplace/internal/models"
	"marketplace/internal/store"
	"marketplace/internal/store/memstore"
)

type harness struct {
	*Services
	stores    store.Stores
	uploadDir string
	metrics   *metrics.Metrics
	clock     *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newHarness(t *testing.T, wrap ...func(store.Stores) store.Stores) *harness {
	t.Helper()

	stores := memstore.New()
	for _, w := range wrap {
		stores = w(stores)
	}

	uploadDir := t.TempDir()
	images, err := media.NewLocalStore(uploadDir, zap.NewNop())
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	m := metrics.New()
	svc := New(Options{
		DeliveryFee:     150,
		PendingOrderTTL: 30 * time.Minute,
		MaxImageBytes:   1 << 20,
		Now:             clock.Now,
	},
		stores,
		auth.NewHasher(bcrypt.MinCost),
		auth.NewTokenService("services-test-secret-0123456789ab", auth.DefaultTokenTTL, auth.WithClock(clock.Now)),
		images,
		m,
		zap.NewNop(),
	)
	return &harness{Services: svc, stores: stores, uploadDir: uploadDir, metrics: m, clock: clock}
}

func (h *harness) register(t *testing.T, phone string, role models.Role) *models.Account {
	t.Helper()
	session, err := h.Accounts.Register(context.Background(), RegisterInput{
		Name:     "User " + phone,
		Phone:    phone,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return session.Account
}

func (h *harness) product(t *testing.T, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "item",
		Price:    price,
		Stock:    stock,
		Category: models.CategoryFashion,
		IsActive: true,
	}
	require.NoError(t, h.stores.Products.Create(context.Background(), p))
	return p
}

func (h *harness) storedImages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(h.uploadDir, "uploads", "products"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}
