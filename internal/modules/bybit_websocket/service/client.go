package service

import (
	"context"
	"log"

	"github.com/gorilla/websocket"

	"liq_bot/internal/models"
	"liq_bot/internal/modules/config"
	healthsvc "liq_bot/internal/modules/health/service"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

type Client struct {
	cfg      *config.Config
	n        ServiceNotifier
	wsDialer *websocket.Dialer
	state    *healthsvc.State
}

func NewClient(cfg *config.Config, n ServiceNotifier, state *healthsvc.State) *Client {
	return &Client{
		cfg:      cfg,
		n:        n,
		wsDialer: &websocket.Dialer{},
		state:    state,
	}
}

// Start поднимает стрим ликвидаций по всему вотчлисту.
func (c *Client) Start(ctx context.Context, out chan<- models.LiquidationEvent) {
	if len(c.cfg.Symbols) == 0 {
		log.Println("[WS] пустой список символов — стример не запущен")
		return
	}

	if c.n != nil {
		c.n.SendService(ctx, "🚀 Bybit: стрим ликвидаций запущен, инструментов: %d", len(c.cfg.Symbols))
	}

	c.streamLiquidations(ctx, out)
}
