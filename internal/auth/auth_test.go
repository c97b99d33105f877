package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

const testSecret = "test-secret-0123456789abcdef0123"

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, 0)
	id := primitive.NewObjectID()

	raw, expiresAt, err := svc.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expiresAt, time.Minute)

	got, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenExpired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewTokenService(testSecret, time.Hour, WithClock(func() time.Time { return issuedAt }))
	raw, _, err := issuer.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	later := NewTokenService(testSecret, time.Hour, WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }))
	_, err = later.Verify(raw)
	require.Error(t, err)
	assert.Equal(t, apperr.TokenExpired, apperr.KindOf(err))
}

func TestTokenForgedOrMalformed(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	other := NewTokenService("another-secret-0123456789abcdef", time.Hour)
	forged, _, err := other.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   primitive.NewObjectID().Hex(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: primitive.NewObjectID().Hex(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"forged":    forged,
		"garbage":   "not.a.token",
		"alg none":  unsigned,
		"no expiry": noExpiry,
		"empty":     "",
	} {
		_, err := svc.Verify(raw)
		require.Error(t, err, name)
		assert.Equal(t, apperr.TokenInvalid, apperr.KindOf(err), name)
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, h.Check(hash, "hunter22"))
	assert.False(t, h.Check(hash, "hunter23"))
	h.CheckMissing("anything")
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = BearerToken("  bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, err = BearerToken("Basic abc")
	assert.Equal(t, apperr.TokenInvalid, apperr.KindOf(err))
}

type fakeAccounts map[primitive.ObjectID]*models.Account

func (f fakeAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func TestTokenResolver(t *testing.T) {
	tokens := NewTokenService(testSecret, time.Hour)
	live := &models.Account{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	odd := &models.Account{ID: primitive.NewObjectID(), Role: "root"}
	resolver := NewTokenResolver(tokens, fakeAccounts{live.ID: live, odd.ID: odd})

	raw, _, err := tokens.Issue(live.ID)
	require.NoError(t, err)
	got, err := resolver.Resolve(context.Background(), "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, live, got)

	deleted, _, err := tokens.Issue(primitive.NewObjectID())
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), "Bearer "+deleted)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	oddToken, _, err := tokens.Issue(odd.ID)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), "Bearer "+oddToken)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, err = resolver.Resolve(context.Background(), "")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}
