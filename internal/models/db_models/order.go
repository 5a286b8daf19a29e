package db_models

type OrderPaymentStatus string

const (
	OrderPaymentPaid   OrderPaymentStatus = "paid"
	OrderPaymentFailed OrderPaymentStatus = "failed"
)

// Order models only the columns this service touches. PaymentStatus is
// ours; the fulfillment Status column belongs to order management and is
// never written here.
type Order struct {
	BaseModel
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	TotalAmount   int64
	Currency      string `gorm:"size:3;default:'RWF'"`

	Status        string             // fulfillment lifecycle, read-only for this service
	PaymentStatus OrderPaymentStatus `gorm:"index"`
}
