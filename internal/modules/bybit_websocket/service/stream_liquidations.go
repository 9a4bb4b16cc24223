package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"liq_bot/internal/models"
)

const liquidationTopicPrefix = "allLiquidation."

// streamLiquidations — одно соединение на весь вотчлист, подписка пачкой.
// После любого обрыва переподключаемся через фиксированную паузу и
// подписываемся заново; роста бэкоффа нет намеренно — доступность важнее.
func (c *Client) streamLiquidations(ctx context.Context, out chan<- models.LiquidationEvent) {
	args := make([]string, 0, len(c.cfg.Symbols))
	for _, s := range c.cfg.Symbols {
		args = append(args, liquidationTopicPrefix+s)
	}

	for {
		log.Printf("[WS] connect %s, %d topics", c.cfg.Bybit.WsURL, len(args))
		conn, _, err := c.wsDialer.Dial(c.cfg.Bybit.WsURL, nil)
		if err != nil {
			log.Printf("[WS] dial error: %v", err)
			if !c.sleepOrDone(ctx) {
				return
			}
			continue
		}

		sub := map[string]any{
			"op":   "subscribe",
			"args": args,
		}
		if err := conn.WriteJSON(sub); err != nil {
			log.Printf("[WS] subscribe error: %v", err)
			_ = conn.Close()
			if !c.sleepOrDone(ctx) {
				return
			}
			continue
		}

		c.state.SetWSConnected(true)
		c.state.SetReady(true)

		// keepalive ping каждые 20s — иначе Bybit закрывает соединение
		stopPing := make(chan struct{})
		go func() {
			defer close(stopPing)
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		// основной read-loop
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[WS] read error: %v", err)
				_ = conn.Close()
				c.state.SetWSConnected(false)
				break
			}

			ev, ok := parseLiquidationFrame(msg)
			if !ok {
				continue
			}
			c.state.TouchEvent(ev.Timestamp)

			select {
			case out <- ev:
			case <-ctx.Done():
				_ = conn.Close()
				c.state.SetWSConnected(false)
				return
			}
		}

		if !c.sleepOrDone(ctx) {
			return
		}
	}
}

// sleepOrDone — фиксированная пауза перед реконнектом; false => ctx закрыт.
func (c *Client) sleepOrDone(ctx context.Context) bool {
	delay := c.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func parseLiquidationFrame(msg []byte) (models.LiquidationEvent, bool) {
	var frame struct {
		Topic string `json:"topic"`
		TS    int64  `json:"ts"`
		Data  []struct {
			T int64  `json:"T"`
			S string `json:"s"`
			// Side ликвидационного ордера: "Buy" => резали шорты.
			Side   string `json:"S"`
			Volume string `json:"v"`
			Price  string `json:"p"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg, &frame); err != nil {
		return models.LiquidationEvent{}, false
	}
	if !strings.HasPrefix(frame.Topic, liquidationTopicPrefix) || len(frame.Data) == 0 {
		return models.LiquidationEvent{}, false
	}

	ts := time.Now()
	if frame.TS > 0 {
		ts = time.UnixMilli(frame.TS)
	}

	obs := make([]models.LiquidationObservation, 0, len(frame.Data))
	for _, row := range frame.Data {
		price, err1 := strconv.ParseFloat(row.Price, 64)
		volume, err2 := strconv.ParseFloat(row.Volume, 64)
		if err1 != nil || err2 != nil || price <= 0 || volume <= 0 {
			continue
		}
		side := models.Side(row.Side)
		if !side.Valid() {
			continue
		}
		obs = append(obs, models.LiquidationObservation{
			Symbol: row.S,
			Side:   side,
			Price:  price,
			Volume: volume,
		})
	}
	if len(obs) == 0 {
		return models.LiquidationEvent{}, false
	}

	return models.LiquidationEvent{Timestamp: ts, Observations: obs}, true
}
