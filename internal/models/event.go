package models

import "time"

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Opposite — сторона контр-трендового ордера.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// LiquidationObservation — одна принудительная ликвидация из стрима.
// Side — сторона ликвидационного ордера биржи (Buy => резали шортистов).
type LiquidationObservation struct {
	Symbol string
	Side   Side
	Price  float64
	Volume float64
}

// NotionalUSD = price * volume.
func (o LiquidationObservation) NotionalUSD() float64 { return o.Price * o.Volume }

// LiquidationEvent — пачка ликвидаций из одного ws-кадра.
type LiquidationEvent struct {
	Timestamp    time.Time
	Observations []LiquidationObservation
}
