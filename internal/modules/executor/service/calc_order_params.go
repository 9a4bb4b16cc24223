package service

import (
	"fmt"

	"liq_bot/internal/helper"
	"liq_bot/internal/models"
)

// sizeByNotional переводит USD-номинал в количество:
// qty = notional/price, вниз до шага лота, но не меньше minQty.
func sizeByNotional(notionalUSD, price float64, meta models.InstrumentMeta) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("price <= 0")
	}
	if notionalUSD <= 0 {
		return 0, fmt.Errorf("notional <= 0")
	}

	qty := notionalUSD / price
	qty = helper.RoundToStep(qty, meta.QtyStep)
	if qty < meta.MinQty {
		qty = meta.MinQty
	}
	if qty <= 0 {
		return 0, fmt.Errorf("qty <= 0 after rounding: %.10f", qty)
	}
	return qty, nil
}

// computeProtectionLevels — TP/SL от процентов, к ближайшему тику.
// Для лонга TP = entry*(1+tp%), SL = entry*(1-stop%); для шорта зеркально.
// Инвариант брекета проверяется ПОСЛЕ округления: перевёрнутый брекет —
// фатальная ошибка конфигурации, ордер не выставляем.
func computeProtectionLevels(side models.Side, entry, tpPct, stopPct, tick float64) (tp, sl float64, err error) {
	if entry <= 0 {
		return 0, 0, fmt.Errorf("entry <= 0")
	}
	if tpPct <= 0 || tpPct >= 100 || stopPct <= 0 || stopPct >= 100 {
		return 0, 0, fmt.Errorf("tp/stop pct out of (0,100): tp=%.4f stop=%.4f", tpPct, stopPct)
	}

	tpFrac := tpPct / 100.0
	slFrac := stopPct / 100.0

	if side == models.SideBuy {
		tp = entry * (1 + tpFrac)
		sl = entry * (1 - slFrac)
	} else {
		tp = entry * (1 - tpFrac)
		sl = entry * (1 + slFrac)
	}

	tp = helper.RoundToTick(tp, tick)
	sl = helper.RoundToTick(sl, tick)

	if side == models.SideBuy {
		if !(tp > entry && entry > sl) {
			return 0, 0, fmt.Errorf("inverted bracket after tick adjust: tp=%.10f entry=%.10f sl=%.10f", tp, entry, sl)
		}
	} else {
		if !(tp < entry && entry < sl) {
			return 0, 0, fmt.Errorf("inverted bracket after tick adjust: tp=%.10f entry=%.10f sl=%.10f", tp, entry, sl)
		}
	}

	return tp, sl, nil
}

// calcOrderParams собирает готовые параметры ордера из котировки и меты.
func calcOrderParams(
	symbol string,
	side models.Side,
	entry float64,
	p Params,
	meta models.InstrumentMeta,
) (models.OrderParams, error) {
	qty, err := sizeByNotional(p.OrderNotionalUSD, entry, meta)
	if err != nil {
		return models.OrderParams{}, fmt.Errorf("size: %w", err)
	}

	tp, sl, err := computeProtectionLevels(side, entry, p.TakeProfitPct, p.StopPct, meta.TickSize)
	if err != nil {
		return models.OrderParams{}, fmt.Errorf("protection levels: %w", err)
	}

	return models.OrderParams{
		Symbol:     symbol,
		Side:       side,
		Qty:        qty,
		Entry:      entry,
		TakeProfit: tp,
		StopLoss:   sl,
	}, nil
}
