package auth

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

// IdentityResolver turns the raw Authorization header of a request into a
// fully loaded account, or fails.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) (*models.Account, error)
}

type AccountFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

type TokenResolver struct {
	tokens   *TokenService
	accounts AccountFinder
}

func NewTokenResolver(tokens *TokenService, accounts AccountFinder) *TokenResolver {
	return &TokenResolver{tokens: tokens, accounts: accounts}
}

func (r *TokenResolver) Resolve(ctx context.Context, authorization string) (*models.Account, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	accountID, err := r.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "account not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "account lookup failed", err)
	}
	if !account.Role.Valid() {
		return nil, apperr.Newf(apperr.Unauthorized, "account has unknown role %q", account.Role)
	}
	return account, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return "", apperr.New(apperr.Unauthorized, "missing token")
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.New(apperr.TokenInvalid, "invalid authorization header")
	}
	return parts[1], nil
}
