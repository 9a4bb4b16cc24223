package notify

import (
	"context"

	"go.uber.org/fx"

	"liq_bot/internal/modules/config"
)

// Module выбирает реализацию по конфигу: телеграм либо stdout-заглушка.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) (Notifier, error) {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					return NewStdout(), nil
				}
				return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, n Notifier, stats StatsSource, positions PositionsSource, ctx context.Context) {
			tg, ok := n.(*Telegram)
			if !ok {
				return
			}
			tg.BindSources(stats, positions)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return tg.Start(ctx)
				},
				OnStop: func(_ context.Context) error {
					tg.Stop()
					return nil
				},
			})
		}),
	)
}
