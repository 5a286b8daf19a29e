package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"isoko/internal/models/db_models"
	"isoko/pkg/utils"
)

func TestCreateOrderFromPayment_HappyPath(t *testing.T) {
	t.Parallel()

	repo := newFakePaymentRepo()
	orders := new(orderRepoMock)

	p := pendingPayment(nil)
	p.Status = db_models.PaymentStatusCompleted
	repo.add(p)

	orderID := uuid.New()
	orders.On("CreateFromPayment", mock.Anything, mock.MatchedBy(func(pay *db_models.Payment) bool {
		return pay.ID == p.ID
	})).Return(&db_models.Order{BaseModel: db_models.BaseModel{ID: orderID}}, nil).Once()
	orders.On("SetPaymentStatus", mock.Anything, orderID, db_models.OrderPaymentPaid).Return(nil).Once()

	svc := NewOrderService(repo, orders)
	resp, err := svc.CreateOrderFromPayment(context.Background(), p.ID.String())

	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, orderID.String(), resp.OrderID)
	require.False(t, resp.AlreadyExisted)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	require.NotNil(t, stored.OrderID)
	require.Equal(t, orderID, *stored.OrderID)
	orders.AssertExpectations(t)
}

func TestCreateOrderFromPayment_SecondCallReturnsExistingOrder(t *testing.T) {
	t.Parallel()

	repo := newFakePaymentRepo()
	orders := new(orderRepoMock)

	orderID := uuid.New()
	p := pendingPayment(&orderID)
	p.Status = db_models.PaymentStatusCompleted
	repo.add(p)

	svc := NewOrderService(repo, orders)
	resp, err := svc.CreateOrderFromPayment(context.Background(), p.ID.String())

	require.NoError(t, err)
	require.True(t, resp.AlreadyExisted)
	require.Equal(t, orderID.String(), resp.OrderID)
	orders.AssertNotCalled(t, "CreateFromPayment", mock.Anything, mock.Anything)
}

func TestCreateOrderFromPayment_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("unknown payment", func(t *testing.T) {
		t.Parallel()

		svc := NewOrderService(newFakePaymentRepo(), new(orderRepoMock))
		_, err := svc.CreateOrderFromPayment(context.Background(), uuid.NewString())
		require.ErrorIs(t, err, utils.ErrPaymentNotFound)
	})

	t.Run("malformed payment id", func(t *testing.T) {
		t.Parallel()

		svc := NewOrderService(newFakePaymentRepo(), new(orderRepoMock))
		_, err := svc.CreateOrderFromPayment(context.Background(), "nope")
		require.ErrorIs(t, err, utils.ErrPaymentNotFound)
	})

	for _, status := range []db_models.PaymentStatus{
		db_models.PaymentStatusPending,
		db_models.PaymentStatusFailed,
	} {
		status := status
		t.Run("payment "+string(status), func(t *testing.T) {
			t.Parallel()

			repo := newFakePaymentRepo()
			p := pendingPayment(nil)
			p.Status = status
			repo.add(p)

			svc := NewOrderService(repo, new(orderRepoMock))
			_, err := svc.CreateOrderFromPayment(context.Background(), p.ID.String())
			require.ErrorIs(t, err, utils.ErrPaymentNotCompleted)
		})
	}
}

func TestCreateOrderFromPayment_LosingAttachRaceReturnsWinner(t *testing.T) {
	t.Parallel()

	repo := newFakePaymentRepo()
	orders := new(orderRepoMock)

	p := pendingPayment(nil)
	p.Status = db_models.PaymentStatusCompleted
	repo.add(p)

	winnerOrder := uuid.New()
	loserOrder := uuid.New()
	orders.On("CreateFromPayment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			// A concurrent call attaches its own order first.
			_, _ = repo.AttachOrder(context.Background(), p.ID, winnerOrder)
		}).
		Return(&db_models.Order{BaseModel: db_models.BaseModel{ID: loserOrder}}, nil).Once()

	svc := NewOrderService(repo, orders)
	resp, err := svc.CreateOrderFromPayment(context.Background(), p.ID.String())

	require.NoError(t, err)
	require.True(t, resp.AlreadyExisted)
	require.Equal(t, winnerOrder.String(), resp.OrderID)
	orders.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, loserOrder, mock.Anything)
}
