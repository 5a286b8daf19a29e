package repositories

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"isoko/internal/models/db_models"
)

type DeadLetterRepositoryInterface interface {
	Record(ctx context.Context, txnID, reference string, payload []byte) error
}

func NewDeadLetterRepository(db *gorm.DB) DeadLetterRepositoryInterface {
	return &DeadLetterRepository{db: db}
}

type DeadLetterRepository struct {
	db *gorm.DB
}

func (r *DeadLetterRepository) Record(ctx context.Context, txnID, reference string, payload []byte) error {
	letter := &db_models.WebhookDeadLetter{
		GatewayTransactionID: txnID,
		Reference:            reference,
	}
	if len(payload) > 0 {
		letter.Payload = datatypes.JSON(payload)
	}
	return r.db.WithContext(ctx).Create(letter).Error
}
