package executor

import (
	"go.uber.org/fx"

	"liq_bot/internal/modules/config"
	detectorsvc "liq_bot/internal/modules/detector/service"
	"liq_bot/internal/modules/executor/service"
	"liq_bot/internal/notify"

	bybitsvc "liq_bot/internal/modules/bybit_client/service"
	trackersvc "liq_bot/internal/modules/tracker/service"
)

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			func(cfg *config.Config, x service.Exchange, reg service.Registry, n service.Notifier) *service.Executor {
				return service.NewExecutor(service.Params{
					OrderNotionalUSD: cfg.OrderNotionalUSD,
					TakeProfitPct:    cfg.TakeProfitPct,
					StopPct:          cfg.StopPct,
				}, x, reg, n)
			},

			// биндинги зависимостей гейта
			func(c *bybitsvc.Client) service.Exchange { return c },
			func(t *trackersvc.Tracker) service.Registry { return t },
			func(n notify.Notifier) service.Notifier { return n },

			// гейт как вход детектора
			func(e *service.Executor) detectorsvc.Gate { return e },
		),
	)
}
