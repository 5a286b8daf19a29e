package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"isoko/internal/models/db_models"
	"isoko/pkg/utils"
)

type OrderRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error)
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status db_models.OrderPaymentStatus) error
	CreateFromPayment(ctx context.Context, payment *db_models.Payment) (*db_models.Order, error)
}

func NewOrderRepository(db *gorm.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *gorm.DB
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// SetPaymentStatus writes only the payment_status column. Fulfillment
// state belongs to order management and must stay untouched.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status db_models.OrderPaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&db_models.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) CreateFromPayment(ctx context.Context, payment *db_models.Payment) (*db_models.Order, error) {
	order := &db_models.Order{
		CustomerName:  payment.CustomerName,
		CustomerEmail: payment.CustomerEmail,
		CustomerPhone: payment.CustomerPhone,
		TotalAmount:   payment.Amount,
		Currency:      payment.Currency,
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
