package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"isoko/internal/models/db_models"
	"isoko/pkg/kpay"
	"isoko/pkg/utils"
)

// fakePaymentRepo is an in-memory payment store with the same
// conditional-update semantics as the postgres repository. The mutex
// around each conditional update is what the database gives us for free
// with a single UPDATE ... WHERE status = 'pending'.
type fakePaymentRepo struct {
	mu       sync.Mutex
	seq      int64
	payments map[uuid.UUID]*db_models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*db_models.Payment)}
}

func (f *fakePaymentRepo) add(p *db_models.Payment) *db_models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt == 0 {
		f.seq++
		p.CreatedAt = f.seq
	}
	f.payments[p.ID] = clonePayment(p)
	return p
}

func clonePayment(p *db_models.Payment) *db_models.Payment {
	cp := *p
	if p.OrderID != nil {
		oid := *p.OrderID
		cp.OrderID = &oid
	}
	if p.CompletedAt != nil {
		ts := *p.CompletedAt
		cp.CompletedAt = &ts
	}
	return &cp
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *db_models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.Reference == payment.Reference {
			return utils.ErrDuplicateReference
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	// created_at ordering is what LatestByOrder sorts on in postgres;
	// a monotonic sequence keeps it deterministic here.
	f.seq++
	payment.CreatedAt = f.seq
	f.payments[payment.ID] = clonePayment(payment)
	return nil
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*db_models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		return clonePayment(p), nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByReference(_ context.Context, reference string) (*db_models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.Reference == reference {
			return clonePayment(p), nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) GetByGatewayTxnID(_ context.Context, txnID string) (*db_models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.GatewayTransactionID != "" && p.GatewayTransactionID == txnID {
			return clonePayment(p), nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindByAnyIdentifier(ctx context.Context, paymentID, txnID, reference string) (*db_models.Payment, error) {
	if paymentID != "" {
		if id, err := uuid.Parse(paymentID); err == nil {
			if p, _ := f.GetByID(ctx, id); p != nil {
				return p, nil
			}
		}
	}
	if reference != "" {
		if p, _ := f.GetByReference(ctx, reference); p != nil {
			return p, nil
		}
	}
	if txnID != "" {
		if p, _ := f.GetByGatewayTxnID(ctx, txnID); p != nil {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) LatestByOrder(_ context.Context, orderID uuid.UUID) (*db_models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *db_models.Payment
	for _, p := range f.payments {
		if p.OrderID == nil || *p.OrderID != orderID {
			continue
		}
		if latest == nil || p.CreatedAt > latest.CreatedAt {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clonePayment(latest), nil
}

func (f *fakePaymentRepo) StoreGatewayResult(_ context.Context, id uuid.UUID, txnID, checkoutURL string, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		p.GatewayTransactionID = txnID
		p.CheckoutURL = checkoutURL
		if len(raw) > 0 {
			p.GatewayResponse = datatypes.JSON(raw)
		}
	}
	return nil
}

func (f *fakePaymentRepo) StoreWebhookPayload(_ context.Context, id uuid.UUID, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok && len(raw) > 0 {
		p.WebhookPayload = datatypes.JSON(raw)
	}
	return nil
}

func (f *fakePaymentRepo) CompleteIfPending(_ context.Context, id uuid.UUID, txnID string, completedAt int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != db_models.PaymentStatusPending {
		return false, nil
	}
	p.Status = db_models.PaymentStatusCompleted
	p.CompletedAt = &completedAt
	if txnID != "" {
		p.GatewayTransactionID = txnID
	}
	return true, nil
}

func (f *fakePaymentRepo) FailIfPending(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != db_models.PaymentStatusPending {
		return false, nil
	}
	p.Status = db_models.PaymentStatusFailed
	p.FailureReason = reason
	return true, nil
}

func (f *fakePaymentRepo) MarkClientTimeout(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != db_models.PaymentStatusPending {
		return false, nil
	}
	p.ClientTimeout = true
	p.TimeoutReason = reason
	return true, nil
}

func (f *fakePaymentRepo) BackfillGatewayTxnID(_ context.Context, id uuid.UUID, txnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok && p.GatewayTransactionID == "" {
		p.GatewayTransactionID = txnID
	}
	return nil
}

func (f *fakePaymentRepo) BackfillCustomerPhone(_ context.Context, id uuid.UUID, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok && p.CustomerPhone == "" {
		p.CustomerPhone = phone
	}
	return nil
}

func (f *fakePaymentRepo) AttachOrder(_ context.Context, paymentID, orderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok || p.OrderID != nil {
		return false, nil
	}
	p.OrderID = &orderID
	return true, nil
}

// testify mocks for the narrow collaborators

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*db_models.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status db_models.OrderPaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *orderRepoMock) CreateFromPayment(ctx context.Context, payment *db_models.Payment) (*db_models.Order, error) {
	args := m.Called(ctx, payment)
	o, _ := args.Get(0).(*db_models.Order)
	return o, args.Error(1)
}

type deadLetterRepoMock struct{ mock.Mock }

func (m *deadLetterRepoMock) Record(ctx context.Context, txnID, reference string, payload []byte) error {
	args := m.Called(ctx, txnID, reference, payload)
	return args.Error(0)
}

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) InitiatePayment(ctx context.Context, req kpay.InitiateRequest) (*kpay.Response, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*kpay.Response)
	return r, args.Error(1)
}

func (m *gatewayMock) CheckStatus(ctx context.Context, req kpay.StatusRequest) (*kpay.Response, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*kpay.Response)
	return r, args.Error(1)
}
