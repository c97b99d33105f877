package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/services"
)

func CreateShop(shops *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var req services.CreateShopInput
		if !bindJSON(c, &req) {
			return
		}

		shop, err := shops.CreateShop(c.Request.Context(), account, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, shop)
	}
}

func GetMyShop(shops *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		shop, err := shops.ShopOwnedBy(c.Request.Context(), account)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, shop)
	}
}

func GetShop(shops *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		shop, err := shops.GetShop(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, shop)
	}
}
