package bybit_client

import (
	"liq_bot/internal/modules/bybit_client/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("bybit_client",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
