package bybit_websocket

import (
	"context"
	"liq_bot/internal/models"
	"liq_bot/internal/modules/bybit_websocket/service"
	"liq_bot/internal/notify"

	"go.uber.org/fx"
)

func newEventsChan() chan models.LiquidationEvent {
	return make(chan models.LiquidationEvent, 1024)
}
func asRecvOnlyEvents(ch chan models.LiquidationEvent) <-chan models.LiquidationEvent { return ch }

// Module поднимает стример ликвидаций Bybit.
func Module() fx.Option {
	return fx.Module("bybit_websocket",
		fx.Provide(
			service.NewClient, // *service.Client
			newEventsChan,     // chan models.LiquidationEvent
			asRecvOnlyEvents,  // <-chan models.LiquidationEvent

			func(n notify.Notifier) service.ServiceNotifier { return n },
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Client, out chan models.LiquidationEvent, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go s.Start(ctx, out)
					return nil
				},
			})
		}),
	)
}
