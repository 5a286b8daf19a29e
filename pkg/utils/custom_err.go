package utils

import "errors"

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvalidOrderID      = errors.New("invalid order id")
	ErrOrderNotFound       = errors.New("order not found")
	ErrAlreadyPaid         = errors.New("order already has a completed payment")
	ErrPaymentInProgress   = errors.New("a payment for this order is still in progress")
	ErrPaymentNotPending   = errors.New("payment is no longer pending")
	ErrPaymentNotCompleted = errors.New("payment is not completed")
	ErrDuplicateReference  = errors.New("payment reference already exists")
	ErrDatabaseError       = errors.New("database error")
)
