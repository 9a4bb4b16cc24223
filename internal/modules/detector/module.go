package detector

import (
	"context"

	"go.uber.org/fx"

	"liq_bot/internal/models"
	"liq_bot/internal/modules/config"
	"liq_bot/internal/modules/detector/service"
	"liq_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("detector",
		fx.Provide(
			func(cfg *config.Config, gate service.Gate, n service.Notifier) *service.Detector {
				return service.New(service.Params{
					MinNotionalUSD: cfg.MinNotionalUSD,
					BigNotionalUSD: cfg.BigNotionalUSD,
					Quiescence:     cfg.Quiescence,
					EvictAfter:     cfg.EvictAfter,
				}, gate, n)
			},

			func(n notify.Notifier) service.Notifier { return n },
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			d *service.Detector,
			events <-chan models.LiquidationEvent,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go d.Run(ctx, events)
					return nil
				},
			})
		}),
	)
}
