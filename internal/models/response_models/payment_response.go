package response_models

type InitiatePaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId,omitempty"`
	Reference     string `json:"reference"`
	CheckoutURL   string `json:"checkoutUrl,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

// KpayStatus echoes the raw gateway fields on a status-check response so
// admin tooling can see what KPay actually said.
type KpayStatus struct {
	StatusID          string `json:"statusId"`
	StatusDescription string `json:"statusDescription"`
	ReturnCode        int    `json:"returnCode"`
	MomTransactionID  string `json:"momTransactionId,omitempty"`
}

type StatusCheckResponse struct {
	Success       bool        `json:"success"`
	PaymentID     string      `json:"paymentId,omitempty"`
	Status        string      `json:"status"`
	Amount        int64       `json:"amount,omitempty"`
	Currency      string      `json:"currency,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
	CheckoutURL   string      `json:"checkoutUrl,omitempty"`
	Message       string      `json:"message,omitempty"`
	NeedsUpdate   bool        `json:"needsUpdate"`
	Error         string      `json:"error,omitempty"` // advisory: set when the gateway was unreachable
	KpayStatus    *KpayStatus `json:"kpayStatus,omitempty"`
}

// WebhookAck is the exact echo shape KPay expects back. Returned on
// success and on payment-not-found alike; anything else triggers the
// gateway's redelivery storm.
type WebhookAck struct {
	TID   string `json:"tid"`
	RefID string `json:"refid"`
	Reply string `json:"reply"`
}

type TimeoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type OrderFromPaymentResponse struct {
	Success        bool   `json:"success"`
	OrderID        string `json:"orderId"`
	AlreadyExisted bool   `json:"alreadyExisted"`
}
