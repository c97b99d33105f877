package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/models"
	"marketplace/internal/services"
)

// AdminListOrders lists every order, optionally narrowed by customerId and
// status.
func AdminListOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, err)
			return
		}
		customerID, ok := optionalObjectIDQuery(c, "customerId")
		if !ok {
			return
		}

		list, total, err := orders.ListOrders(c.Request.Context(), account, services.OrderQuery{
			CustomerID: customerID,
			Status:     models.OrderStatus(c.Query("status")),
			Page:       page,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, paginated(list, page, total))
	}
}
