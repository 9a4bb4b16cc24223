package service

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"liq_bot/internal/models"
	"liq_bot/pkg/logger"
)

type Exchange interface {
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	GetInstrumentMeta(ctx context.Context, symbol string) (models.InstrumentMeta, error)
	GetPosition(ctx context.Context, symbol string, side models.Side) (models.RemotePosition, error)
	PlaceMarketWithBracket(ctx context.Context, p models.OrderParams) (string, error)
}

// Registry — куда регистрируем открытую позицию (трекер).
type Registry interface {
	Track(p models.TrackedPosition)
}

type Notifier interface {
	Sendf(format string, args ...any)
}

type Params struct {
	OrderNotionalUSD float64
	TakeProfitPct    float64
	StopPct          float64
}

// Executor — Order Execution Gate: проверка конфликта, расчёт параметров,
// выставление ордера, регистрация позиции. Ровно одно уведомление на
// терминальный исход (submitted / skipped / failed), ретраев нет.
type Executor struct {
	p   Params
	x   Exchange
	reg Registry
	n   Notifier
	now func() time.Time
}

func NewExecutor(p Params, x Exchange, reg Registry, n Notifier) *Executor {
	return &Executor{p: p, x: x, reg: reg, n: n, now: time.Now}
}

func (e *Executor) Execute(ctx context.Context, symbol string, side models.Side) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "executor.execute")
	span.SetTag("symbol", symbol)
	span.SetTag("side", string(side))
	defer span.Finish()

	// 1. конфликт: уже есть позиция в ту же сторону.
	// Спрашиваем ровно свою сторону: в хедж-режиме противоположная
	// позиция может быть открыта одновременно и конфликтом не считается.
	pos, err := e.x.GetPosition(ctx, symbol, side)
	if err != nil {
		e.n.Sendf("❗️ [%s] не смог проверить позицию: %v", symbol, err)
		return errors.Wrap(err, "query position")
	}
	if pos.Size > 0 {
		logger.Info("[EXEC] %s: пропуск, уже есть %s на %.6g", symbol, side, pos.Size)
		e.n.Sendf("⏭ [%s] пропуск %s: уже открыта позиция той же стороны (size=%.6g)",
			symbol, side, pos.Size)
		return nil // benign skip
	}

	// 2. котировка
	price, err := e.x.GetLastPrice(ctx, symbol)
	if err != nil {
		e.n.Sendf("❗️ [%s] нет котировки: %v", symbol, err)
		return errors.Wrap(err, "ticker")
	}

	// 3. мета инструмента + размер + брекет
	meta, err := e.x.GetInstrumentMeta(ctx, symbol)
	if err != nil {
		e.n.Sendf("❗️ [%s] мета инструмента: %v", symbol, err)
		return errors.Wrap(err, "instrument meta")
	}

	params, err := calcOrderParams(symbol, side, price, e.p, meta)
	if err != nil {
		e.n.Sendf("❗️ [%s] параметры ордера: %v", symbol, err)
		return errors.Wrap(err, "order params")
	}

	// 4. маркет с прикреплённым TP/SL
	orderID, err := e.x.PlaceMarketWithBracket(ctx, params)
	if err != nil {
		var rej *models.OrderRejectedError
		if errors.As(err, &rej) {
			e.n.Sendf("❌ [%s] ордер отклонён: %s", symbol, rej.Reason)
		} else {
			e.n.Sendf("❌ [%s] ошибка выставления: %v", symbol, err)
		}
		return errors.Wrap(err, "place order")
	}

	// 5. регистрируем в трекере
	opened := models.TrackedPosition{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: price,
		TakeProfit: params.TakeProfit,
		StopLoss:   params.StopLoss,
		Size:       params.Qty,
		OpenedAt:   e.now(),
	}
	e.reg.Track(opened)

	logger.Info("[EXEC] %s: открыт %s qty=%.6g entry=%.6g tp=%.6g sl=%.6g id=%s",
		symbol, side, params.Qty, price, params.TakeProfit, params.StopLoss, orderID)
	e.n.Sendf("✅ [%s] %s qty=%.6g @ %.6g\nTP %.6g | SL %.6g",
		symbol, side, params.Qty, price, params.TakeProfit, params.StopLoss)

	return nil
}
