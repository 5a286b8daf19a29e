package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"isoko/internal/models/request_models"
	"isoko/internal/services"
	"isoko/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentServiceInterface
}

func NewPaymentController(paymentService services.PaymentServiceInterface) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// Initiate godoc
// @Summary Initiate a KPay payment
// @Description Create a pending payment and request a transaction from KPay
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.InitiatePaymentRequest true "Initiate Payment Request"
// @Success 200 {object} response_models.InitiatePaymentResponse
// @Router /payments/initiate [post]
func (p *PaymentController) Initiate(c *gin.Context) {
	var request request_models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	resp, err := p.paymentService.InitiatePayment(c.Request.Context(), request)
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Webhook receives KPay push notifications. The response is the echo
// shape KPay expects on every non-5xx outcome; a 5xx is returned only on
// internal failure, which tells KPay to redeliver.
func (p *PaymentController) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var payload request_models.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("webhook: malformed payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}
	if err := payload.Validate(); err != nil {
		log.Printf("webhook: incomplete payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ack, err := p.paymentService.ProcessWebhook(c.Request.Context(), payload, raw)
	if err != nil {
		log.Printf("webhook: processing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, ack)
}

// CheckStatus is the polling endpoint. Lookups that miss and gateway
// outages both answer 200 with advisory fields so clients keep polling.
func (p *PaymentController) CheckStatus(c *gin.Context) {
	var request request_models.StatusCheckRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := request.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := p.paymentService.CheckStatus(c.Request.Context(), request)
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (p *PaymentController) Timeout(c *gin.Context) {
	var request request_models.TimeoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	resp, err := p.paymentService.DeclareTimeout(c.Request.Context(), request)
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (p *PaymentController) Retry(c *gin.Context) {
	var request request_models.RetryPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	resp, err := p.paymentService.Retry(c.Request.Context(), request)
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AdminCheckStatus forces a gateway reconciliation for one payment.
// Mounted behind JWT + admin role middleware.
func (p *PaymentController) AdminCheckStatus(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		utils.RespondError(c, http.StatusBadRequest, "payment id is required")
		return
	}

	resp, err := p.paymentService.CheckStatus(c.Request.Context(), request_models.StatusCheckRequest{
		PaymentID: paymentID,
	})
	if err != nil {
		utils.HandlePaymentError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "payment status checked")
}
