package middleware

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/apperr"
	"marketplace/internal/auth"
	"marketplace/internal/models"
)

// Authenticate resolves the caller once per request and aborts with 401 when
// any step fails. Handlers behind it can rely on CurrentAccount.
func Authenticate(resolver auth.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, unauthorized(err))
			return
		}

		setAccount(c, account)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			abortWithError(c, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		if !roleAllowed(account.Role, roles) {
			abortWithError(c, apperr.New(apperr.Forbidden, "forbidden"))
			return
		}
		c.Next()
	}
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	switch role {
	case models.RoleCustomer, models.RoleShopOwner, models.RoleAdmin:
	default:
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// unauthorized keeps the token kinds and infrastructure failures and folds
// everything else into Unauthorized.
func unauthorized(err error) error {
	switch apperr.KindOf(err) {
	case apperr.Unauthorized, apperr.TokenExpired, apperr.TokenInvalid, apperr.Internal:
		return err
	default:
		return apperr.Wrap(apperr.Unauthorized, "unauthorized", err)
	}
}
