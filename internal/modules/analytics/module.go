package analytics

import (
	"go.uber.org/fx"

	"liq_bot/internal/modules/analytics/service"
	"liq_bot/internal/notify"
	"liq_bot/pkg/db"
)

func Module() fx.Option {
	return fx.Module("analytics",
		fx.Provide(
			func(tm *db.PgTxManager) *service.Journal {
				return service.NewJournal(tm)
			},
			func(n notify.Notifier, j *service.Journal) *service.Summary {
				return service.NewSummary(n, j)
			},

			// сводка как источник /stats
			func(s *service.Summary) notify.StatsSource { return s },
		),
	)
}
