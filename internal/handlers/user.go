package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/services"
)

func GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func UpdateMe(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var req services.ProfileInput
		if !bindJSON(c, &req) {
			return
		}

		updated, err := accounts.UpdateProfile(c.Request.Context(), account, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func GetUserAddresses(addresses *services.AddressService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		list, err := addresses.List(c.Request.Context(), account)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"addresses": list})
	}
}

func CreateUserAddress(addresses *services.AddressService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var req services.AddressInput
		if !bindJSON(c, &req) {
			return
		}

		address, err := addresses.Create(c.Request.Context(), account, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"address": address})
	}
}

func UpdateUserAddress(addresses *services.AddressService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		var req services.AddressInput
		if !bindJSON(c, &req) {
			return
		}

		address, err := addresses.Update(c.Request.Context(), account, id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"address": address})
	}
}

func DeleteUserAddress(addresses *services.AddressService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		if err := addresses.Delete(c.Request.Context(), account, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}
