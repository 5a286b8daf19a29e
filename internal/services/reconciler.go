package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"isoko/internal/models/db_models"
	"isoko/internal/repositories"
	"isoko/pkg/kpay"
)

// ReconcileResult reports what the writer did. LinkErr carries a failed
// order-linkage write: the payment commit is never rolled back for it,
// because retrying the order update is the safe recovery path.
type ReconcileResult struct {
	Updated bool
	Status  db_models.PaymentStatus
	LinkErr error
}

// Reconciler is the single writer both event sources (webhook push and
// status polling) funnel through. It applies a resolved gateway status
// to a payment and, only on a terminal transition, updates the linked
// order's payment_status.
type Reconciler struct {
	payments repositories.PaymentRepositoryInterface
	orders   repositories.OrderRepositoryInterface
}

func NewReconciler(payments repositories.PaymentRepositoryInterface, orders repositories.OrderRepositoryInterface) *Reconciler {
	return &Reconciler{
		payments: payments,
		orders:   orders,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, payment *db_models.Payment, res kpay.Resolution, gatewayTxnID string) (ReconcileResult, error) {
	// Terminal states are sticky. This is the idempotency guard against
	// duplicate webhook delivery and webhook/poll races.
	if payment.Status.Terminal() {
		return ReconcileResult{Updated: false, Status: payment.Status}, nil
	}

	switch {
	case res.Successful:
		updated, err := r.payments.CompleteIfPending(ctx, payment.ID, gatewayTxnID, time.Now().Unix())
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("complete payment %s: %w", payment.ID, err)
		}
		if !updated {
			return r.lostRace(ctx, payment)
		}
		result := ReconcileResult{Updated: true, Status: db_models.PaymentStatusCompleted}
		if payment.OrderID != nil {
			result.LinkErr = r.linkOrder(ctx, payment, db_models.OrderPaymentPaid)
		}
		return result, nil

	case res.Failed:
		updated, err := r.payments.FailIfPending(ctx, payment.ID, res.Message)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("fail payment %s: %w", payment.ID, err)
		}
		if !updated {
			return r.lostRace(ctx, payment)
		}
		result := ReconcileResult{Updated: true, Status: db_models.PaymentStatusFailed}
		if payment.OrderID != nil {
			result.LinkErr = r.linkOrder(ctx, payment, db_models.OrderPaymentFailed)
		}
		return result, nil

	case res.Pending:
		// Already pending locally, nothing to write.
		return ReconcileResult{Updated: false, Status: db_models.PaymentStatusPending}, nil

	default:
		// Unknown (including not-found-at-gateway): keep the previous
		// status. An unknown transaction is not evidence of failure.
		log.Printf("reconcile: payment %s has unresolved gateway status (%s), keeping %s",
			payment.ID, res.Message, payment.Status)
		return ReconcileResult{Updated: false, Status: payment.Status}, nil
	}
}

// lostRace re-reads the row after a conditional update matched nothing:
// a concurrent reconciler committed a terminal state first.
func (r *Reconciler) lostRace(ctx context.Context, payment *db_models.Payment) (ReconcileResult, error) {
	fresh, err := r.payments.GetByID(ctx, payment.ID)
	if err != nil {
		return ReconcileResult{}, err
	}
	status := payment.Status
	if fresh != nil {
		status = fresh.Status
	}
	return ReconcileResult{Updated: false, Status: status}, nil
}

func (r *Reconciler) linkOrder(ctx context.Context, payment *db_models.Payment, status db_models.OrderPaymentStatus) error {
	if err := r.orders.SetPaymentStatus(ctx, *payment.OrderID, status); err != nil {
		// The payment write is already durable; report and let the
		// caller (or a later status check) retry the order update.
		log.Printf("reconcile: payment %s committed but order %s linkage failed: %v",
			payment.ID, payment.OrderID, err)
		return err
	}
	return nil
}
