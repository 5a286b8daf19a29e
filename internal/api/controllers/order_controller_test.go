package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"isoko/internal/models/response_models"
	"isoko/pkg/utils"
)

type orderServiceMock struct{ mock.Mock }

func (m *orderServiceMock) CreateOrderFromPayment(ctx context.Context, paymentID string) (*response_models.OrderFromPaymentResponse, error) {
	args := m.Called(ctx, paymentID)
	r, _ := args.Get(0).(*response_models.OrderFromPaymentResponse)
	return r, args.Error(1)
}

func newOrderRouter(svc *orderServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/orders/from-payment", NewOrderController(svc).CreateFromPayment)
	return r
}

func TestCreateFromPaymentEndpoint(t *testing.T) {
	t.Run("creates the order", func(t *testing.T) {
		svc := new(orderServiceMock)
		svc.On("CreateOrderFromPayment", mock.Anything, "pid-1").
			Return(&response_models.OrderFromPaymentResponse{
				Success: true,
				OrderID: "oid-1",
			}, nil).Once()

		w := postJSON(t, newOrderRouter(svc), "/orders/from-payment", `{"paymentId":"pid-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"success":true,"orderId":"oid-1","alreadyExisted":false}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing payment id is 400", func(t *testing.T) {
		svc := new(orderServiceMock)
		w := postJSON(t, newOrderRouter(svc), "/orders/from-payment", `{}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateOrderFromPayment", mock.Anything, mock.Anything)
	})

	t.Run("uncompleted payment is 400", func(t *testing.T) {
		svc := new(orderServiceMock)
		svc.On("CreateOrderFromPayment", mock.Anything, "pid-1").
			Return(nil, utils.ErrPaymentNotCompleted).Once()

		w := postJSON(t, newOrderRouter(svc), "/orders/from-payment", `{"paymentId":"pid-1"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
