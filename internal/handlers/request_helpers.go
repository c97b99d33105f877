// Package handlers holds the gin handlers. Each handler binds the request,
// calls one service operation and renders its result or error.
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
)

func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// bindJSON decodes the body into dst and reports failures as Validation.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.FromValidation(err))
		return false
	}
	return true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondError(c, apperr.Newf(apperr.Validation, "invalid %s", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

func optionalObjectIDQuery(c *gin.Context, name string) (*primitive.ObjectID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respondError(c, apperr.Newf(apperr.Validation, "invalid %s", name))
		return nil, false
	}
	return &id, true
}

// currentAccount is only reachable behind middleware.Authenticate.
func currentAccount(c *gin.Context) (*models.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		respondError(c, apperr.New(apperr.Unauthorized, "unauthorized"))
		return nil, false
	}
	return account, true
}
