package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"isoko/internal/models/db_models"
	"isoko/internal/models/response_models"
	"isoko/internal/repositories"
	"isoko/pkg/utils"
)

type OrderServiceInterface interface {
	CreateOrderFromPayment(ctx context.Context, paymentID string) (*response_models.OrderFromPaymentResponse, error)
}

// OrderService turns a completed session payment (one initiated before
// any order existed) into an order, exactly once.
type OrderService struct {
	payments repositories.PaymentRepositoryInterface
	orders   repositories.OrderRepositoryInterface
}

func NewOrderService(payments repositories.PaymentRepositoryInterface, orders repositories.OrderRepositoryInterface) OrderServiceInterface {
	return &OrderService{
		payments: payments,
		orders:   orders,
	}
}

func (s *OrderService) CreateOrderFromPayment(ctx context.Context, paymentID string) (*response_models.OrderFromPaymentResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, utils.ErrPaymentNotFound
	}

	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		log.Printf("order-from-payment: loading payment %s: %v", id, err)
		return nil, utils.ErrDatabaseError
	}
	if payment == nil {
		return nil, utils.ErrPaymentNotFound
	}

	// Idempotent: a second call returns the order linked by the first.
	if payment.OrderID != nil {
		return &response_models.OrderFromPaymentResponse{
			Success:        true,
			OrderID:        payment.OrderID.String(),
			AlreadyExisted: true,
		}, nil
	}

	if payment.Status != db_models.PaymentStatusCompleted {
		return nil, utils.ErrPaymentNotCompleted
	}

	order, err := s.orders.CreateFromPayment(ctx, payment)
	if err != nil {
		log.Printf("order-from-payment: creating order for payment %s: %v", id, err)
		return nil, utils.ErrDatabaseError
	}

	attached, err := s.payments.AttachOrder(ctx, payment.ID, order.ID)
	if err != nil {
		log.Printf("order-from-payment: attaching order %s to payment %s: %v", order.ID, id, err)
		return nil, utils.ErrDatabaseError
	}
	if !attached {
		// Lost a race with a concurrent call; report the winner's order.
		fresh, err := s.payments.GetByID(ctx, payment.ID)
		if err != nil || fresh == nil || fresh.OrderID == nil {
			return nil, utils.ErrDatabaseError
		}
		return &response_models.OrderFromPaymentResponse{
			Success:        true,
			OrderID:        fresh.OrderID.String(),
			AlreadyExisted: true,
		}, nil
	}

	if err := s.orders.SetPaymentStatus(ctx, order.ID, db_models.OrderPaymentPaid); err != nil {
		// The order exists and is linked; the payment_status write can
		// be repaired by a later status check.
		log.Printf("order-from-payment: setting payment_status on order %s: %v", order.ID, err)
	}

	return &response_models.OrderFromPaymentResponse{
		Success: true,
		OrderID: order.ID.String(),
	}, nil
}
