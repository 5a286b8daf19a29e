package request_models

import (
	"errors"

	"isoko/pkg/kpay"
)

type InitiatePaymentRequest struct {
	OrderID       string `json:"orderId"` // optional: empty for session payments
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
	CustomerPhone string `json:"customerPhone" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	RedirectURL   string `json:"redirectUrl"`
	Details       string `json:"details"`
}

type RetryPaymentRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
	CustomerPhone string `json:"customerPhone" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	RedirectURL   string `json:"redirectUrl"`
}

type StatusCheckRequest struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
}

func (r StatusCheckRequest) Validate() error {
	if r.PaymentID == "" && r.TransactionID == "" && r.Reference == "" {
		return errors.New("one of paymentId, transactionId or reference is required")
	}
	return nil
}

type TimeoutRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Reason    string `json:"reason"`
}

// WebhookPayload is KPay's push notification. Numeric and string field
// values both occur in the wild, hence the Flex types.
type WebhookPayload struct {
	TID              kpay.FlexString `json:"tid"`
	RefID            kpay.FlexString `json:"refid"`
	StatusID         kpay.FlexString `json:"statusid"`
	StatusDesc       kpay.FlexString `json:"statusdesc"`
	MomTransactionID kpay.FlexString `json:"momtransactionid"`
	PayAccount       kpay.FlexString `json:"payaccount"`
}

// Validate rejects deliveries missing any of the four identifying
// fields. The description is load-bearing, not cosmetic: statusid 03 is
// disambiguated by its text, and an absent description would read as a
// terminal failure.
func (w WebhookPayload) Validate() error {
	if w.TID == "" || w.RefID == "" || w.StatusID == "" || w.StatusDesc == "" {
		return errors.New("tid, refid, statusid and statusdesc are required")
	}
	return nil
}

type CreateOrderFromPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
}
