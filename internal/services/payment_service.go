package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"isoko/internal/models/db_models"
	"isoko/internal/models/request_models"
	"isoko/internal/models/response_models"
	"isoko/internal/repositories"
	"isoko/pkg/kpay"
	mem "isoko/pkg/memcache"
	"isoko/pkg/utils"
)

// KpayGateway is the slice of the KPay client this service needs.
type KpayGateway interface {
	InitiatePayment(ctx context.Context, req kpay.InitiateRequest) (*kpay.Response, error)
	CheckStatus(ctx context.Context, req kpay.StatusRequest) (*kpay.Response, error)
}

type PaymentServiceInterface interface {
	InitiatePayment(ctx context.Context, req request_models.InitiatePaymentRequest) (*response_models.InitiatePaymentResponse, error)
	Retry(ctx context.Context, req request_models.RetryPaymentRequest) (*response_models.InitiatePaymentResponse, error)
	ProcessWebhook(ctx context.Context, payload request_models.WebhookPayload, raw []byte) (*response_models.WebhookAck, error)
	CheckStatus(ctx context.Context, req request_models.StatusCheckRequest) (*response_models.StatusCheckResponse, error)
	DeclareTimeout(ctx context.Context, req request_models.TimeoutRequest) (*response_models.TimeoutResponse, error)
}

type paymentService struct {
	payments    repositories.PaymentRepositoryInterface
	orders      repositories.OrderRepositoryInterface
	deadLetters repositories.DeadLetterRepositoryInterface
	gateway     KpayGateway
	reconciler  *Reconciler
	cache       *mem.StatusCache
	refPrefix   string
}

func NewPaymentService(
	payments repositories.PaymentRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	deadLetters repositories.DeadLetterRepositoryInterface,
	gateway KpayGateway,
	reconciler *Reconciler,
	cache *mem.StatusCache,
) PaymentServiceInterface {
	return &paymentService{
		payments:    payments,
		orders:      orders,
		deadLetters: deadLetters,
		gateway:     gateway,
		reconciler:  reconciler,
		cache:       cache,
		refPrefix:   "ISK",
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, req request_models.InitiatePaymentRequest) (*response_models.InitiatePaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, kpay.ErrInvalidAmount
	}
	if !kpay.SupportedMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", kpay.ErrUnsupportedMethod, req.PaymentMethod)
	}

	var orderID *uuid.UUID
	if req.OrderID != "" {
		parsed, err := uuid.Parse(req.OrderID)
		if err != nil {
			return nil, utils.ErrInvalidOrderID
		}
		orderID = &parsed
	}

	reference := kpay.GenerateReference(s.refPrefix)
	payment := &db_models.Payment{
		OrderID:       orderID,
		Amount:        req.Amount,
		Currency:      "RWF",
		Method:        db_models.PaymentMethod(req.PaymentMethod),
		Status:        db_models.PaymentStatusPending,
		Reference:     reference,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: kpay.FormatPhoneNumber(req.CustomerPhone),
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		log.Printf("initiate: creating payment for order %s: %v", req.OrderID, err)
		if errors.Is(err, utils.ErrDuplicateReference) {
			return nil, err
		}
		return nil, utils.ErrDatabaseError
	}

	resp, err := s.gateway.InitiatePayment(ctx, kpay.InitiateRequest{
		Amount:   req.Amount,
		Currency: payment.Currency,
		Customer: kpay.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: payment.CustomerPhone,
		},
		Method:      req.PaymentMethod,
		Reference:   reference,
		Details:     req.Details,
		RedirectURL: req.RedirectURL,
	})
	if err != nil {
		// The attempt is dead: mark the local row failed so a retry is
		// possible immediately. The row stays for audit.
		if _, ferr := s.payments.FailIfPending(ctx, payment.ID, err.Error()); ferr != nil {
			log.Printf("initiate: marking payment %s failed: %v", payment.ID, ferr)
		}
		return nil, err
	}

	if err := s.payments.StoreGatewayResult(ctx, payment.ID, resp.TransactionID, resp.CheckoutURL, resp.Raw); err != nil {
		log.Printf("initiate: storing gateway result for payment %s: %v", payment.ID, err)
	}

	status := db_models.PaymentStatusPending
	message := "payment initiated"
	res := kpay.ResolveStatus(resp.StatusID, resp.StatusDescription, resp.ReturnCode)
	if res.Successful || res.Failed {
		// Some methods (cards via redirect excluded) settle synchronously.
		result, rerr := s.reconciler.Reconcile(ctx, payment, res, resp.TransactionID)
		if rerr != nil {
			log.Printf("initiate: reconciling payment %s: %v", payment.ID, rerr)
		} else {
			status = result.Status
			message = res.Message
		}
	}

	return &response_models.InitiatePaymentResponse{
		Success:       status != db_models.PaymentStatusFailed,
		PaymentID:     payment.ID.String(),
		TransactionID: resp.TransactionID,
		Reference:     reference,
		CheckoutURL:   resp.CheckoutURL,
		Status:        string(status),
		Message:       message,
	}, nil
}

// Retry gates a fresh attempt on the state of the order's latest payment:
// a completed payment rejects it outright, a pending one without a
// declared client timeout means a gateway session may still be live.
func (s *paymentService) Retry(ctx context.Context, req request_models.RetryPaymentRequest) (*response_models.InitiatePaymentResponse, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, utils.ErrInvalidOrderID
	}

	latest, err := s.payments.LatestByOrder(ctx, orderID)
	if err != nil {
		log.Printf("retry: loading latest payment for order %s: %v", orderID, err)
		return nil, utils.ErrDatabaseError
	}
	if latest != nil {
		if latest.Status == db_models.PaymentStatusCompleted {
			return nil, utils.ErrAlreadyPaid
		}
		if latest.Status == db_models.PaymentStatusPending && !latest.ClientTimeout {
			return nil, utils.ErrPaymentInProgress
		}
	}

	return s.InitiatePayment(ctx, request_models.InitiatePaymentRequest{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
		RedirectURL:   req.RedirectURL,
	})
}

// ProcessWebhook applies a push notification. The returned ack is the
// echo shape KPay requires on every non-5xx outcome, including
// payment-not-found; a non-nil error is the one case that legitimately
// triggers KPay's redelivery.
func (s *paymentService) ProcessWebhook(ctx context.Context, payload request_models.WebhookPayload, raw []byte) (*response_models.WebhookAck, error) {
	ack := &response_models.WebhookAck{
		TID:   string(payload.TID),
		RefID: string(payload.RefID),
		Reply: "OK",
	}

	payment, err := s.payments.GetByReference(ctx, string(payload.RefID))
	if err != nil {
		return nil, fmt.Errorf("webhook: lookup by reference: %w", err)
	}
	if payment == nil {
		payment, err = s.payments.GetByGatewayTxnID(ctx, string(payload.TID))
		if err != nil {
			return nil, fmt.Errorf("webhook: lookup by transaction id: %w", err)
		}
	}
	if payment == nil {
		log.Printf("webhook: no payment matches tid=%s refid=%s, dead-lettering", payload.TID, payload.RefID)
		if derr := s.deadLetters.Record(ctx, string(payload.TID), string(payload.RefID), raw); derr != nil {
			log.Printf("webhook: recording dead letter: %v", derr)
		}
		return ack, nil
	}

	if payment.Status.Terminal() {
		// Duplicate delivery after settlement, nothing to do.
		return ack, nil
	}

	if payment.GatewayTransactionID == "" && payload.TID != "" {
		// The initiation response never carried a transaction id; the
		// webhook is the first place we see it.
		if berr := s.payments.BackfillGatewayTxnID(ctx, payment.ID, string(payload.TID)); berr != nil {
			log.Printf("webhook: backfilling txn id on payment %s: %v", payment.ID, berr)
		}
	}
	if payment.CustomerPhone == "" && payload.PayAccount != "" {
		if berr := s.payments.BackfillCustomerPhone(ctx, payment.ID, kpay.FormatPhoneNumber(string(payload.PayAccount))); berr != nil {
			log.Printf("webhook: backfilling pay account on payment %s: %v", payment.ID, berr)
		}
	}
	if serr := s.payments.StoreWebhookPayload(ctx, payment.ID, raw); serr != nil {
		log.Printf("webhook: storing payload on payment %s: %v", payment.ID, serr)
	}

	res := kpay.ResolveStatus(string(payload.StatusID), string(payload.StatusDesc), 0)
	result, err := s.reconciler.Reconcile(ctx, payment, res, string(payload.TID))
	if err != nil {
		return nil, fmt.Errorf("webhook: reconciling payment %s: %w", payment.ID, err)
	}
	if result.Updated {
		s.cache.Invalidate(payment.ID.String())
	}

	return ack, nil
}

// CheckStatus is the pull path. Terminal payments answer from local
// state without a gateway call; a gateway outage degrades to the
// last-known state with an advisory error, never a hard failure.
func (s *paymentService) CheckStatus(ctx context.Context, req request_models.StatusCheckRequest) (*response_models.StatusCheckResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", kpay.ErrMissingIdentifier, err)
	}

	payment, err := s.payments.FindByAnyIdentifier(ctx, req.PaymentID, req.TransactionID, req.Reference)
	if err != nil {
		log.Printf("status: lookup (%s/%s/%s): %v", req.PaymentID, req.TransactionID, req.Reference, err)
		return nil, utils.ErrDatabaseError
	}
	if payment == nil {
		// Soft miss so polling clients keep retrying instead of erroring.
		return &response_models.StatusCheckResponse{
			Success: false,
			Status:  "unknown",
			Message: "payment not found",
		}, nil
	}

	if payment.Status.Terminal() {
		if payment.Status == db_models.PaymentStatusCompleted && payment.OrderID != nil {
			s.repairOrderLink(ctx, payment)
		}
		return s.localStatusResponse(payment, "payment already "+string(payment.Status)), nil
	}

	if cached, ok := s.cache.Get(payment.ID.String()); ok {
		resp := s.localStatusResponse(payment, cached.StatusDescription)
		resp.KpayStatus = &response_models.KpayStatus{
			StatusID:          cached.StatusID,
			StatusDescription: cached.StatusDescription,
			ReturnCode:        cached.ReturnCode,
			MomTransactionID:  cached.MomTransactionID,
		}
		return resp, nil
	}

	gwResp, err := s.gateway.CheckStatus(ctx, kpay.StatusRequest{
		TransactionID: payment.GatewayTransactionID,
		Reference:     payment.Reference,
	})
	if err != nil {
		log.Printf("status: gateway check for payment %s: %v", payment.ID, err)
		resp := s.localStatusResponse(payment, "gateway unreachable, returning last known status")
		resp.Error = err.Error()
		return resp, nil
	}

	res := kpay.ResolveStatus(gwResp.StatusID, gwResp.StatusDescription, gwResp.ReturnCode)
	if res.Pending {
		s.cache.Set(payment.ID.String(), mem.GatewayStatus{
			StatusID:          gwResp.StatusID,
			StatusDescription: gwResp.StatusDescription,
			ReturnCode:        gwResp.ReturnCode,
			MomTransactionID:  gwResp.MomTransactionID,
		})
	}

	result, err := s.reconciler.Reconcile(ctx, payment, res, gwResp.TransactionID)
	if err != nil {
		log.Printf("status: reconciling payment %s: %v", payment.ID, err)
		return nil, utils.ErrDatabaseError
	}

	resp := s.localStatusResponse(payment, res.Message)
	resp.Status = string(result.Status)
	resp.NeedsUpdate = result.Updated
	if gwResp.TransactionID != "" {
		resp.TransactionID = gwResp.TransactionID
	}
	resp.KpayStatus = &response_models.KpayStatus{
		StatusID:          gwResp.StatusID,
		StatusDescription: gwResp.StatusDescription,
		ReturnCode:        gwResp.ReturnCode,
		MomTransactionID:  gwResp.MomTransactionID,
	}
	return resp, nil
}

// DeclareTimeout records that the client stopped waiting. Advisory only:
// status never changes here, and a late webhook can still settle the
// payment correctly afterwards.
func (s *paymentService) DeclareTimeout(ctx context.Context, req request_models.TimeoutRequest) (*response_models.TimeoutResponse, error) {
	id, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return nil, utils.ErrPaymentNotFound
	}

	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		log.Printf("timeout: loading payment %s: %v", id, err)
		return nil, utils.ErrDatabaseError
	}
	if payment == nil {
		return nil, utils.ErrPaymentNotFound
	}
	if payment.Status.Terminal() {
		return nil, utils.ErrPaymentNotPending
	}

	reason := req.Reason
	if reason == "" {
		reason = "client declared timeout"
	}
	ok, err := s.payments.MarkClientTimeout(ctx, id, reason)
	if err != nil {
		log.Printf("timeout: marking payment %s: %v", id, err)
		return nil, utils.ErrDatabaseError
	}
	if !ok {
		// Settled between the read and the conditional update.
		return nil, utils.ErrPaymentNotPending
	}

	return &response_models.TimeoutResponse{
		Success: true,
		Message: "timeout recorded; the payment may still complete and a retry is now allowed",
	}, nil
}

// repairOrderLink re-attempts a previously failed order linkage: the
// payment is the source of truth, the order update is retryable.
func (s *paymentService) repairOrderLink(ctx context.Context, payment *db_models.Payment) {
	order, err := s.orders.GetByID(ctx, *payment.OrderID)
	if err != nil || order == nil {
		return
	}
	if order.PaymentStatus == db_models.OrderPaymentPaid {
		return
	}
	if err := s.orders.SetPaymentStatus(ctx, order.ID, db_models.OrderPaymentPaid); err != nil {
		log.Printf("status: repairing linkage for order %s: %v", order.ID, err)
	} else {
		log.Printf("status: repaired stale payment_status on order %s", order.ID)
	}
}

func (s *paymentService) localStatusResponse(payment *db_models.Payment, message string) *response_models.StatusCheckResponse {
	return &response_models.StatusCheckResponse{
		Success:       true,
		PaymentID:     payment.ID.String(),
		Status:        string(payment.Status),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Reference:     payment.Reference,
		TransactionID: payment.GatewayTransactionID,
		CheckoutURL:   payment.CheckoutURL,
		Message:       message,
	}
}
