package db_models

import "gorm.io/datatypes"

// WebhookDeadLetter records a webhook delivery that matched no payment.
// The handler still acks OK to KPay (otherwise it retries forever), so
// without this row a misrouted webhook would only exist as a log line.
type WebhookDeadLetter struct {
	BaseModel
	GatewayTransactionID string         `gorm:"index"`
	Reference            string         `gorm:"index"`
	Payload              datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
