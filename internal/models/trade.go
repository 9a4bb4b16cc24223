package models

import "time"

type CloseType string

const (
	CloseTakeProfit CloseType = "TakeProfit"
	CloseStopLoss   CloseType = "StopLoss"
	CloseManual     CloseType = "Manual"
)

// ClosedTrade — неизменяемый результат закрытой позиции.
type ClosedTrade struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	ExitPrice  float64
	Pnl        float64
	ClosedAt   time.Time
	ClosedType CloseType
}

func (t ClosedTrade) Profitable() bool { return t.Pnl >= 0 }
