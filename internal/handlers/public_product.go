package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/models"
	"marketplace/internal/services"
)

func GetProducts(products *services.ProductService, publicBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, err)
			return
		}
		shopID, ok := optionalObjectIDQuery(c, "shopId")
		if !ok {
			return
		}

		list, total, err := products.ListProducts(c.Request.Context(), services.ProductQuery{
			ShopID:   shopID,
			Category: models.Category(strings.ToLower(strings.TrimSpace(c.Query("category")))),
			Page:     page,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		data := make([]productResponse, 0, len(list))
		for i := range list {
			data = append(data, toProductResponse(&list[i], publicBase))
		}
		c.JSON(http.StatusOK, paginated(data, page, total))
	}
}

func GetProduct(products *services.ProductService, publicBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		product, err := products.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProductResponse(product, publicBase))
	}
}
