package tracker

import (
	"context"

	"go.uber.org/fx"

	"liq_bot/internal/modules/config"
	"liq_bot/internal/modules/tracker/service"

	analyticssvc "liq_bot/internal/modules/analytics/service"
	bybitsvc "liq_bot/internal/modules/bybit_client/service"
	healthsvc "liq_bot/internal/modules/health/service"
	"liq_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("tracker",
		fx.Provide(
			func(cfg *config.Config, x service.Exchange, sink service.Sink, state *healthsvc.State) *service.Tracker {
				return service.New(x, sink, cfg.PollInterval, state)
			},

			func(c *bybitsvc.Client) service.Exchange { return c },
			func(s *analyticssvc.Summary) service.Sink { return s },

			// трекер как источник /positions
			func(t *service.Tracker) notify.PositionsSource { return t },
		),
		fx.Invoke(func(lc fx.Lifecycle, t *service.Tracker, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go t.Run(ctx)
					return nil
				},
			})
		}),
	)
}
