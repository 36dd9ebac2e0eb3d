package controllers

import (
	"net/http"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/blousecraft/blousecraft-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpdateOrderStatusRequest represents the request body for moving an order along
type UpdateOrderStatusRequest struct {
	Status   models.OrderStatus `json:"status" binding:"required"`
	Progress *int               `json:"progress"`
}

// UpdateOrderPriceRequest represents the request body for setting the final price
type UpdateOrderPriceRequest struct {
	FinalPrice *decimal.Decimal `json:"final_price" binding:"required"`
}

func orderService() *services.OrderService {
	db := config.GetDB()
	return services.NewOrderService(db, services.NewNotificationService(db))
}

// CreateOrder handles POST /api/v1/orders - books a tailor
func CreateOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var in services.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := orderService().Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, order)
}

// ListOrders handles GET /api/v1/orders?type=customer|tailor&page=&limit=
func ListOrders(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page := utils.ParsePagination(c)
	orders, total, err := orderService().List(c.Request.Context(), userID, c.Query("type"), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       orders,
		"pagination": page.Meta(total),
	})
}

// GetOrder handles GET /api/v1/orders/:id - visible to its customer and tailor
func GetOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status (order's tailor only)
func UpdateOrderStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := orderService().UpdateStatus(c.Request.Context(), userID, id, req.Status, req.Progress)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// UpdateOrderPrice handles PUT /api/v1/orders/:id/price (order's tailor only)
func UpdateOrderPrice(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := orderService().UpdatePrice(c.Request.Context(), userID, id, *req.FinalPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}
