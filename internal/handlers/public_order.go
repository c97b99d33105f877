package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/models"
	"marketplace/internal/services"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	// Name and Price are display copies sent by some clients; the snapshot
	// always comes from the product record.
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest       `json:"items"`
	Total           *float64                       `json:"total"`
	AddressID       string                         `json:"addressId"`
	DeliveryAddress *services.DeliveryAddressInput `json:"deliveryAddress"`
	PaymentMethod   models.PaymentMethod           `json:"paymentMethod"`
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (r createOrderRequest) input() services.CreateOrderInput {
	items := make([]services.OrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, services.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return services.CreateOrderInput{
		Items:           items,
		AddressID:       r.AddressID,
		DeliveryAddress: r.DeliveryAddress,
		PaymentMethod:   models.PaymentMethod(strings.ToLower(strings.TrimSpace(string(r.PaymentMethod)))),
		ClientTotal:     r.Total,
	}
}

func CreateOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var req createOrderRequest
		if !bindJSON(c, &req) {
			return
		}

		order, err := orders.CreateOrder(c.Request.Context(), account, req.input())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func GetOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), account, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func GetMyOrders(orders *services.OrderService) gin.HandlerFunc {
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

		id := account.ID
		list, total, err := orders.ListOrders(c.Request.Context(), account, services.OrderQuery{
			CustomerID: &id,
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

func UpdateOrderStatus(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		var req updateOrderStatusRequest
		if !bindJSON(c, &req) {
			return
		}

		order, err := orders.Transition(c.Request.Context(), account, id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
