package payment_fx

import (
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"isoko/internal/api/controllers"
	"isoko/internal/repositories"
	"isoko/internal/services"
	mem "isoko/pkg/memcache"
)

// statusCacheTTL bounds how often a polling client can push us into a
// fresh KPay status call for the same payment.
const statusCacheTTL = 5 * time.Second

var Module = fx.Provide(
	providePaymentRepository,
	provideOrderRepository,
	provideDeadLetterRepository,
	provideStatusCache,
	provideReconciler,
	providePaymentService,
	providePaymentController,
)

func providePaymentRepository(db *gorm.DB) repositories.PaymentRepositoryInterface {
	return repositories.NewPaymentRepository(db)
}

func provideOrderRepository(db *gorm.DB) repositories.OrderRepositoryInterface {
	return repositories.NewOrderRepository(db)
}

func provideDeadLetterRepository(db *gorm.DB) repositories.DeadLetterRepositoryInterface {
	return repositories.NewDeadLetterRepository(db)
}

func provideStatusCache() *mem.StatusCache {
	return mem.NewStatusCache(statusCacheTTL)
}

func provideReconciler(
	payments repositories.PaymentRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
) *services.Reconciler {
	return services.NewReconciler(payments, orders)
}

func providePaymentService(
	payments repositories.PaymentRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	deadLetters repositories.DeadLetterRepositoryInterface,
	gateway services.KpayGateway,
	reconciler *services.Reconciler,
	cache *mem.StatusCache,
) services.PaymentServiceInterface {
	return services.NewPaymentService(payments, orders, deadLetters, gateway, reconciler, cache)
}

func providePaymentController(paymentService services.PaymentServiceInterface) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService)
}
