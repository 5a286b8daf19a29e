package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"isoko/internal/models/request_models"
	"isoko/internal/services"
	"isoko/pkg/utils"
)

type OrderController struct {
	orderService services.OrderServiceInterface
}

func NewOrderController(orderService services.OrderServiceInterface) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CreateFromPayment creates an order from a completed session payment.
// Idempotent: repeated calls return the already-linked order id.
func (o *OrderController) CreateFromPayment(c *gin.Context) {
	var request request_models.CreateOrderFromPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	resp, err := o.orderService.CreateOrderFromPayment(c.Request.Context(), request.PaymentID)
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
