package kpay_fx

import (
	"log"

	"go.uber.org/fx"

	"isoko/internal/services"
	"isoko/pkg/kpay"
)

var Module = fx.Provide(
	provideKpayClient,
)

func provideKpayClient() services.KpayGateway {
	client, err := kpay.NewClient(kpay.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Error initializing KPay client: %v", err)
	}
	return client
}
