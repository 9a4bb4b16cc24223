package service

import (
	"context"
	"sync"
	"time"

	"liq_bot/internal/models"
	healthsvc "liq_bot/internal/modules/health/service"
	"liq_bot/pkg/logger"
)

type Exchange interface {
	GetPosition(ctx context.Context, symbol string, side models.Side) (models.RemotePosition, error)
	GetMarkPrice(ctx context.Context, symbol string) (float64, error)
}

// Sink — приёмник закрытых трейдов (аналитика).
type Sink interface {
	Record(ctx context.Context, t models.ClosedTrade)
}

// Tracker опрашивает открытые позиции раз в interval, ловит закрытия,
// классифицирует их и отдаёт результат в Sink. Терминального состояния
// нет — крутится всё время жизни процесса.
type Tracker struct {
	x        Exchange
	sink     Sink
	interval time.Duration
	state    *healthsvc.State
	now      func() time.Time

	mu   sync.Mutex
	open map[models.PosKey]models.TrackedPosition
}

func New(x Exchange, sink Sink, interval time.Duration, state *healthsvc.State) *Tracker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Tracker{
		x:        x,
		sink:     sink,
		interval: interval,
		state:    state,
		now:      time.Now,
		open:     make(map[models.PosKey]models.TrackedPosition),
	}
}

// Track регистрирует только что открытую позицию.
func (t *Tracker) Track(p models.TrackedPosition) {
	t.mu.Lock()
	t.open[p.Key()] = p
	n := len(t.open)
	t.mu.Unlock()

	if t.state != nil {
		t.state.SetOpenPositions(n)
	}
}

// Open — снимок отслеживаемых позиций (для /positions).
func (t *Tracker) Open() []models.TrackedPosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.TrackedPosition, 0, len(t.open))
	for _, p := range t.open {
		out = append(out, p)
	}
	return out
}

func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckOnce(ctx)
		}
	}
}

// CheckOnce — один тик опроса. Итерируем по снапшоту, чтобы закрытия
// не ломали обход; ошибка по одному символу не мешает остальным.
func (t *Tracker) CheckOnce(ctx context.Context) {
	t.mu.Lock()
	snapshot := make([]models.TrackedPosition, 0, len(t.open))
	for _, p := range t.open {
		snapshot = append(snapshot, p)
	}
	t.mu.Unlock()

	for _, p := range snapshot {
		t.checkOne(ctx, p)
	}
}

func (t *Tracker) checkOne(ctx context.Context, p models.TrackedPosition) {
	// смотрим ровно свою сторону: в хедж-режиме по символу может
	// одновременно жить и противоположная позиция
	remote, err := t.x.GetPosition(ctx, p.Symbol, p.Side)
	if err != nil {
		logger.Error("[TRACK] %s: позиция недоступна: %v", p.Symbol, err)
		return // проверим на следующем тике
	}
	if remote.Size > 0 {
		return // ещё открыта
	}

	// позиция на бирже обнулилась — закрытие
	exit, err := t.x.GetMarkPrice(ctx, p.Symbol)
	if err != nil {
		logger.Error("[TRACK] %s: нет цены для exitPrice: %v", p.Symbol, err)
		return
	}

	trade := models.ClosedTrade{
		Symbol:     p.Symbol,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		Pnl:        computePnl(p, exit),
		ClosedAt:   t.now(),
		ClosedType: classifyClose(p, exit),
	}

	t.mu.Lock()
	delete(t.open, p.Key())
	n := len(t.open)
	t.mu.Unlock()

	if t.state != nil {
		t.state.SetOpenPositions(n)
	}

	logger.Info("[TRACK] %s: закрыта %s (%s) entry=%.6g exit=%.6g pnl=%.4f",
		p.Symbol, p.Side, trade.ClosedType, p.EntryPrice, exit, trade.Pnl)

	t.sink.Record(ctx, trade)
}

// classifyClose — по какому уровню ушла позиция, с учётом стороны.
func classifyClose(p models.TrackedPosition, exit float64) models.CloseType {
	if p.Side == models.SideBuy {
		switch {
		case exit >= p.TakeProfit:
			return models.CloseTakeProfit
		case exit <= p.StopLoss:
			return models.CloseStopLoss
		}
		return models.CloseManual
	}
	switch {
	case exit <= p.TakeProfit:
		return models.CloseTakeProfit
	case exit >= p.StopLoss:
		return models.CloseStopLoss
	}
	return models.CloseManual
}

func computePnl(p models.TrackedPosition, exit float64) float64 {
	if p.Side == models.SideBuy {
		return (exit - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - exit) * p.Size
}
