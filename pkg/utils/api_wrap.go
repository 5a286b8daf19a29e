package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"isoko/pkg/kpay"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// HandlePaymentError maps service errors onto the payment API's wire
// contract: 4xx/5xx with a plain {"error": ...} body. Checkout clients
// parse that field directly.
func HandlePaymentError(c *gin.Context, err error) {
	code := paymentErrorStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("unexpected payment error: %v", err)
		message = "internal server error"
	}
	c.JSON(code, gin.H{"error": message})
}

func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, kpay.ErrInvalidAmount),
		errors.Is(err, kpay.ErrUnsupportedMethod),
		errors.Is(err, kpay.ErrMissingIdentifier),
		errors.Is(err, ErrPaymentNotPending),
		errors.Is(err, ErrPaymentNotCompleted),
		errors.Is(err, ErrInvalidOrderID):
		return http.StatusBadRequest
	case errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrPaymentInProgress),
		errors.Is(err, ErrDuplicateReference):
		return http.StatusConflict
	case errors.Is(err, kpay.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
