package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liq_bot/internal/models"
	"liq_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type symbolState struct {
	positions map[models.Side]models.RemotePosition
	posErr    error
	mark      float64
	markErr   error
}

type fakeExchange struct {
	bySymbol map[string]symbolState
}

func (x *fakeExchange) GetPosition(_ context.Context, symbol string, side models.Side) (models.RemotePosition, error) {
	s := x.bySymbol[symbol]
	return s.positions[side], s.posErr
}

func (x *fakeExchange) GetMarkPrice(_ context.Context, symbol string) (float64, error) {
	s := x.bySymbol[symbol]
	return s.mark, s.markErr
}

type fakeSink struct {
	trades []models.ClosedTrade
}

func (s *fakeSink) Record(_ context.Context, t models.ClosedTrade) {
	s.trades = append(s.trades, t)
}

func longPosition() models.TrackedPosition {
	return models.TrackedPosition{
		Symbol:     "BTCUSDT",
		Side:       models.SideBuy,
		EntryPrice: 100,
		TakeProfit: 101,
		StopLoss:   99.65,
		Size:       2,
		OpenedAt:   time.Now(),
	}
}

func TestClassifyClose_Long(t *testing.T) {
	p := longPosition()

	cases := []struct {
		exit float64
		want models.CloseType
	}{
		{101, models.CloseTakeProfit},
		{101.5, models.CloseTakeProfit},
		{99.65, models.CloseStopLoss},
		{99, models.CloseStopLoss},
		{100.2, models.CloseManual},
		{99.9, models.CloseManual},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyClose(p, c.exit), "exit=%v", c.exit)
	}
}

func TestClassifyClose_Short(t *testing.T) {
	p := models.TrackedPosition{
		Symbol:     "ETHUSDT",
		Side:       models.SideSell,
		EntryPrice: 100,
		TakeProfit: 99,
		StopLoss:   100.35,
		Size:       1,
	}

	assert.Equal(t, models.CloseTakeProfit, classifyClose(p, 98.5))
	assert.Equal(t, models.CloseStopLoss, classifyClose(p, 100.5))
	assert.Equal(t, models.CloseManual, classifyClose(p, 99.8))
}

func TestComputePnl(t *testing.T) {
	long := longPosition()
	assert.InDelta(t, 2.0, computePnl(long, 101), 1e-9)  // (101-100)*2
	assert.InDelta(t, -2.0, computePnl(long, 99), 1e-9)

	short := long
	short.Side = models.SideSell
	assert.InDelta(t, -2.0, computePnl(short, 101), 1e-9)
	assert.InDelta(t, 2.0, computePnl(short, 99), 1e-9)
}

// Позиция исчезла с биржи: один ClosedTrade, позиция снята с учёта.
func TestCheckOnce_RecordsClosure(t *testing.T) {
	x := &fakeExchange{bySymbol: map[string]symbolState{
		"BTCUSDT": {mark: 101},
	}}
	sink := &fakeSink{}
	tr := New(x, sink, time.Hour, nil)
	tr.Track(longPosition())

	tr.CheckOnce(context.Background())

	require.Len(t, sink.trades, 1)
	trade := sink.trades[0]
	assert.Equal(t, "BTCUSDT", trade.Symbol)
	assert.Equal(t, models.CloseTakeProfit, trade.ClosedType)
	assert.InDelta(t, 101.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 2.0, trade.Pnl, 1e-9)
	assert.Empty(t, tr.Open())

	// повторный тик — дублей нет
	tr.CheckOnce(context.Background())
	assert.Len(t, sink.trades, 1)
}

// Позиция всё ещё открыта на бирже — ничего не фиксируем.
func TestCheckOnce_StillOpen(t *testing.T) {
	x := &fakeExchange{bySymbol: map[string]symbolState{
		"BTCUSDT": {positions: map[models.Side]models.RemotePosition{
			models.SideBuy: {Symbol: "BTCUSDT", Side: models.SideBuy, Size: 2},
		}},
	}}
	sink := &fakeSink{}
	tr := New(x, sink, time.Hour, nil)
	tr.Track(longPosition())

	tr.CheckOnce(context.Background())

	assert.Empty(t, sink.trades)
	assert.Len(t, tr.Open(), 1)
}

// Хедж-режим: по символу живут обе стороны. Закрытие Sell не должно
// ложно закрыть всё ещё открытый Buy, и наоборот.
func TestCheckOnce_BothSidesTrackedIndependently(t *testing.T) {
	x := &fakeExchange{bySymbol: map[string]symbolState{
		"BTCUSDT": {
			positions: map[models.Side]models.RemotePosition{
				models.SideBuy: {Symbol: "BTCUSDT", Side: models.SideBuy, Size: 2},
				// Sell уже закрыт на бирже
			},
			mark: 100.35,
		},
	}}
	sink := &fakeSink{}
	tr := New(x, sink, time.Hour, nil)

	tr.Track(longPosition())
	tr.Track(models.TrackedPosition{
		Symbol:     "BTCUSDT",
		Side:       models.SideSell,
		EntryPrice: 100,
		TakeProfit: 99,
		StopLoss:   100.35,
		Size:       1,
	})

	tr.CheckOnce(context.Background())

	require.Len(t, sink.trades, 1)
	assert.Equal(t, models.SideSell, sink.trades[0].Side)
	assert.Equal(t, models.CloseStopLoss, sink.trades[0].ClosedType)

	open := tr.Open()
	require.Len(t, open, 1)
	assert.Equal(t, models.SideBuy, open[0].Side)
}

// Ошибка по одному символу не мешает закрыть другой; упавший остаётся
// на учёте до следующего тика.
func TestCheckOnce_FailureIsolated(t *testing.T) {
	x := &fakeExchange{bySymbol: map[string]symbolState{
		"BTCUSDT": {posErr: fmt.Errorf("timeout")},
		"ETHUSDT": {mark: 2950},
	}}
	sink := &fakeSink{}
	tr := New(x, sink, time.Hour, nil)

	tr.Track(longPosition())
	tr.Track(models.TrackedPosition{
		Symbol:     "ETHUSDT",
		Side:       models.SideBuy,
		EntryPrice: 3000,
		TakeProfit: 3030,
		StopLoss:   2989.5,
		Size:       1,
	})

	tr.CheckOnce(context.Background())

	require.Len(t, sink.trades, 1)
	assert.Equal(t, "ETHUSDT", sink.trades[0].Symbol)
	assert.Equal(t, models.CloseStopLoss, sink.trades[0].ClosedType)

	open := tr.Open()
	require.Len(t, open, 1)
	assert.Equal(t, "BTCUSDT", open[0].Symbol)
}

// Нет цены для exitPrice — закрытие откладывается, позиция остаётся.
func TestCheckOnce_MarkPriceUnavailable(t *testing.T) {
	x := &fakeExchange{bySymbol: map[string]symbolState{
		"BTCUSDT": {markErr: models.ErrPriceUnavailable},
	}}
	sink := &fakeSink{}
	tr := New(x, sink, time.Hour, nil)
	tr.Track(longPosition())

	tr.CheckOnce(context.Background())

	assert.Empty(t, sink.trades)
	assert.Len(t, tr.Open(), 1)
}

// Повторный Track по тому же ключу заменяет запись, а не плодит её.
func TestTrack_SameKeyReplaces(t *testing.T) {
	tr := New(&fakeExchange{bySymbol: map[string]symbolState{}}, &fakeSink{}, time.Hour, nil)

	p := longPosition()
	tr.Track(p)
	p.EntryPrice = 102
	tr.Track(p)

	open := tr.Open()
	require.Len(t, open, 1)
	assert.InDelta(t, 102.0, open[0].EntryPrice, 1e-9)
}
