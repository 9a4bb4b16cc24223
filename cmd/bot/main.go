package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"liq_bot/internal/modules/analytics"
	"liq_bot/internal/modules/bybit_client"
	"liq_bot/internal/modules/bybit_websocket"
	"liq_bot/internal/modules/config"
	"liq_bot/internal/modules/detector"
	"liq_bot/internal/modules/executor"
	"liq_bot/internal/modules/health"
	"liq_bot/internal/modules/postgres"
	"liq_bot/internal/modules/tracker"
	"liq_bot/internal/notify"
	"liq_bot/pkg/logger"
	"liq_bot/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("liq_bot")
	tracing.SetServiceName("liq_bot")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		bybit_client.Module(),
		bybit_websocket.Module(),
		health.Module(),
		notify.Module(),
		analytics.Module(),
		tracker.Module(),
		executor.Module(),
		detector.Module(),
		fx.Invoke(initTracing),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil // без джегера остаётся глобальный no-op трейсер
	}
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
