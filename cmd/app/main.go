package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"isoko/cmd/fx/db_fx"
	"isoko/cmd/fx/kpay_fx"
	"isoko/cmd/fx/order_fx"
	"isoko/cmd/fx/payment_fx"
	"isoko/internal/api/controllers"
	"isoko/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	app := fx.New(
		db_fx.Module,
		kpay_fx.Module,
		payment_fx.Module,
		order_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	paymentController *controllers.PaymentController,
	orderController *controllers.OrderController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, paymentController, orderController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	paymentController *controllers.PaymentController,
	orderController *controllers.OrderController) {

	payments := r.Group("/payments")
	payments.POST("/initiate", paymentController.Initiate)
	payments.POST("/webhook", paymentController.Webhook)
	payments.POST("/status", paymentController.CheckStatus)
	payments.POST("/timeout", paymentController.Timeout)
	payments.POST("/retry", paymentController.Retry)

	orders := r.Group("/orders")
	orders.POST("/from-payment", orderController.CreateFromPayment)

	admin := r.Group("/admin", middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	admin.POST("/payments/:id/check", paymentController.AdminCheckStatus)
}
