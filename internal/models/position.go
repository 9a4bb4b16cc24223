package models

import "time"

type PosKey struct {
	Symbol string
	Side   Side
}

// TrackedPosition — позиция, открытая ботом; живёт в трекере до закрытия.
type TrackedPosition struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Size       float64
	OpenedAt   time.Time
}

func (p TrackedPosition) Key() PosKey { return PosKey{Symbol: p.Symbol, Side: p.Side} }

// RemotePosition — позиция по данным биржи. Size == 0 => позиции нет.
type RemotePosition struct {
	Symbol   string
	Side     Side
	Size     float64
	AvgPrice float64
}

// OrderParams — готовые параметры маркет-ордера с прикреплённым TP/SL.
type OrderParams struct {
	Symbol     string
	Side       Side
	Qty        float64
	Entry      float64 // котировка на момент расчёта, на биржу не уходит
	TakeProfit float64
	StopLoss   float64
}
