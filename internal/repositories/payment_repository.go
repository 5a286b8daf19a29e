package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"isoko/internal/models/db_models"
	"isoko/pkg/utils"
)

type PaymentRepositoryInterface interface {
	Create(ctx context.Context, payment *db_models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*db_models.Payment, error)
	GetByGatewayTxnID(ctx context.Context, txnID string) (*db_models.Payment, error)
	FindByAnyIdentifier(ctx context.Context, paymentID, txnID, reference string) (*db_models.Payment, error)
	LatestByOrder(ctx context.Context, orderID uuid.UUID) (*db_models.Payment, error)
	StoreGatewayResult(ctx context.Context, id uuid.UUID, txnID, checkoutURL string, raw []byte) error
	StoreWebhookPayload(ctx context.Context, id uuid.UUID, raw []byte) error
	CompleteIfPending(ctx context.Context, id uuid.UUID, txnID string, completedAt int64) (bool, error)
	FailIfPending(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkClientTimeout(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	BackfillGatewayTxnID(ctx context.Context, id uuid.UUID, txnID string) error
	BackfillCustomerPhone(ctx context.Context, id uuid.UUID, phone string) error
	AttachOrder(ctx context.Context, paymentID, orderID uuid.UUID) (bool, error)
}

func NewPaymentRepository(db *gorm.DB) PaymentRepositoryInterface {
	return &PaymentRepository{db: db}
}

type PaymentRepository struct {
	db *gorm.DB
}

const uniqueViolation = "23505"

func (r *PaymentRepository) Create(ctx context.Context, payment *db_models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return utils.ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	return r.firstWhere(ctx, "id = ?", id)
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*db_models.Payment, error) {
	return r.firstWhere(ctx, "reference = ?", reference)
}

func (r *PaymentRepository) GetByGatewayTxnID(ctx context.Context, txnID string) (*db_models.Payment, error) {
	return r.firstWhere(ctx, "gateway_transaction_id = ?", txnID)
}

// FindByAnyIdentifier tries payment id, then merchant reference, then
// gateway transaction id, returning the first hit.
func (r *PaymentRepository) FindByAnyIdentifier(ctx context.Context, paymentID, txnID, reference string) (*db_models.Payment, error) {
	if paymentID != "" {
		if id, err := uuid.Parse(paymentID); err == nil {
			if p, err := r.GetByID(ctx, id); err != nil || p != nil {
				return p, err
			}
		}
	}
	if reference != "" {
		if p, err := r.GetByReference(ctx, reference); err != nil || p != nil {
			return p, err
		}
	}
	if txnID != "" {
		if p, err := r.GetByGatewayTxnID(ctx, txnID); err != nil || p != nil {
			return p, err
		}
	}
	return nil, nil
}

func (r *PaymentRepository) LatestByOrder(ctx context.Context, orderID uuid.UUID) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) StoreGatewayResult(ctx context.Context, id uuid.UUID, txnID, checkoutURL string, raw []byte) error {
	updates := map[string]interface{}{
		"gateway_transaction_id": txnID,
		"checkout_url":           checkoutURL,
	}
	if len(raw) > 0 {
		updates["gateway_response"] = datatypes.JSON(raw)
	}
	return r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *PaymentRepository) StoreWebhookPayload(ctx context.Context, id uuid.UUID, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ?", id).
		Update("webhook_payload", datatypes.JSON(raw)).Error
}

// CompleteIfPending commits the completed status in a single conditional
// update. Webhook and polling reconcilers may race from different
// processes; the WHERE clause on status is what makes terminal states
// sticky, not any in-process lock.
func (r *PaymentRepository) CompleteIfPending(ctx context.Context, id uuid.UUID, txnID string, completedAt int64) (bool, error) {
	updates := map[string]interface{}{
		"status":       db_models.PaymentStatusCompleted,
		"completed_at": completedAt,
	}
	if txnID != "" {
		updates["gateway_transaction_id"] = txnID
	}
	res := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND status = ?", id, db_models.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) FailIfPending(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND status = ?", id, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         db_models.PaymentStatusFailed,
			"failure_reason": reason,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkClientTimeout flips the advisory flag without touching status.
func (r *PaymentRepository) MarkClientTimeout(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND status = ?", id, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"client_timeout": true,
			"timeout_reason": reason,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) BackfillGatewayTxnID(ctx context.Context, id uuid.UUID, txnID string) error {
	return r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND (gateway_transaction_id IS NULL OR gateway_transaction_id = '')", id).
		Update("gateway_transaction_id", txnID).Error
}

func (r *PaymentRepository) BackfillCustomerPhone(ctx context.Context, id uuid.UUID, phone string) error {
	return r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND (customer_phone IS NULL OR customer_phone = '')", id).
		Update("customer_phone", phone).Error
}

// AttachOrder links an order to a session payment at most once.
func (r *PaymentRepository) AttachOrder(ctx context.Context, paymentID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Payment{}).
		Where("id = ? AND order_id IS NULL", paymentID).
		Update("order_id", orderID)
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepository) firstWhere(ctx context.Context, query string, arg interface{}) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := r.db.WithContext(ctx).Where(query, arg).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
