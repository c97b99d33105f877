package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/services"
)

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterInput
		if !bindJSON(c, &req) {
			return
		}

		session, err := accounts.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

func Login(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		session, err := accounts.Authenticate(c.Request.Context(), req.Phone, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}
