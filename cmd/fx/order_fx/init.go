package order_fx

import (
	"go.uber.org/fx"

	"isoko/internal/api/controllers"
	"isoko/internal/repositories"
	"isoko/internal/services"
)

var Module = fx.Provide(
	provideOrderService,
	provideOrderController,
)

func provideOrderService(
	payments repositories.PaymentRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
) services.OrderServiceInterface {
	return services.NewOrderService(payments, orders)
}

func provideOrderController(orderService services.OrderServiceInterface) *controllers.OrderController {
	return controllers.NewOrderController(orderService)
}
