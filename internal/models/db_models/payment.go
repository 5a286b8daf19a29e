package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal statuses are sticky: once committed, no reconciliation path
// may overwrite them.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type PaymentMethod string

const (
	MethodMTNMomo     PaymentMethod = "mtn_momo"
	MethodAirtelMoney PaymentMethod = "airtel_money"
	MethodCard        PaymentMethod = "card"
	MethodSpenn       PaymentMethod = "spenn"
)

// Payment is the unit of reconciliation. A retry supersedes a row with a
// new row and a new reference; rows are never deleted and amount/currency
// are never mutated after creation.
type Payment struct {
	BaseModel
	OrderID  *uuid.UUID    `gorm:"index"` // nil until an order is created from a session payment
	Amount   int64         // minor units
	Currency string        `gorm:"size:3;default:'RWF'"`
	Method   PaymentMethod `gorm:"index"`
	Status   PaymentStatus `gorm:"index"`

	// Reference is our idempotency key at the gateway, unique per attempt.
	Reference            string `gorm:"uniqueIndex"`
	GatewayTransactionID string `gorm:"index"` // may be backfilled by a later webhook
	CheckoutURL          string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// ClientTimeout is advisory: it unblocks a retry for the same order
	// but never changes Status. The original payment may still resolve
	// asynchronously later.
	ClientTimeout bool
	TimeoutReason string

	FailureReason string
	CompletedAt   *int64

	// Verbatim gateway payloads kept for audit and non-repudiation.
	GatewayResponse datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	WebhookPayload  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

// IsSessionPayment reports whether no order has been linked yet. Order
// creation from a completed session payment is a separate explicit step.
func (p *Payment) IsSessionPayment() bool {
	return p.OrderID == nil
}
