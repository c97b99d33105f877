package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/models"
)

func GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
	}
}

func GetSizes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sizes": models.Sizes})
	}
}
