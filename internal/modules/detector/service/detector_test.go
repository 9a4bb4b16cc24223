package service

import (
	"context"
	"fmt"
	"os"
	"sync"
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

type gateCall struct {
	symbol string
	side   models.Side
}

type fakeGate struct {
	mu    sync.Mutex
	calls []gateCall
}

func (g *fakeGate) Execute(_ context.Context, symbol string, side models.Side) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gateCall{symbol: symbol, side: side})
	return nil
}

func (g *fakeGate) snapshot() []gateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateCall(nil), g.calls...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Sendf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, fmt.Sprintf(format, args...))
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func testParams() Params {
	return Params{
		MinNotionalUSD: 1000,
		BigNotionalUSD: 100000,
		Quiescence:     40 * time.Millisecond,
		EvictAfter:     time.Minute,
	}
}

func obs(symbol string, side models.Side, price, volume float64) models.LiquidationObservation {
	return models.LiquidationObservation{Symbol: symbol, Side: side, Price: price, Volume: volume}
}

func event(o ...models.LiquidationObservation) models.LiquidationEvent {
	return models.LiquidationEvent{Timestamp: time.Now(), Observations: o}
}

// Каскад из трёх sell-ликвидаций: после окна тишины ровно один контр-ордер Buy.
func TestDetector_CascadeFiresOnce(t *testing.T) {
	gate := &fakeGate{}
	d := New(testParams(), gate, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	for i := 0; i < 3; i++ {
		events <- event(obs("BTCUSDT", models.SideSell, 50000, 0.05)) // 2500 USD
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	calls := gate.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "BTCUSDT", calls[0].symbol)
	assert.Equal(t, models.SideBuy, calls[0].side)

	// тишина после срабатывания — повторных ордеров нет
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, gate.snapshot(), 1)
}

// Событие ниже порога не взводит таймер и не попадает в кэш.
func TestDetector_BelowThresholdIgnored(t *testing.T) {
	gate := &fakeGate{}
	d := New(testParams(), gate, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	events <- event(obs("ETHUSDT", models.SideBuy, 3000, 0.1)) // 300 USD

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, gate.snapshot())
}

// Каждое новое квалифицированное событие перезапускает отсчёт тишины.
func TestDetector_RestartsCountdown(t *testing.T) {
	gate := &fakeGate{}
	d := New(testParams(), gate, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	// шлём чаще окна тишины — срабатывания быть не должно
	for i := 0; i < 5; i++ {
		events <- event(obs("SOLUSDT", models.SideSell, 200, 10)) // 2000 USD
		time.Sleep(25 * time.Millisecond)
	}
	assert.Empty(t, gate.snapshot())

	// теперь молчим — ровно одно
	time.Sleep(150 * time.Millisecond)
	assert.Len(t, gate.snapshot(), 1)
}

// Разные стороны одного символа дебаунсятся независимо.
func TestDetector_SidesIndependent(t *testing.T) {
	gate := &fakeGate{}
	d := New(testParams(), gate, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	events <- event(
		obs("BTCUSDT", models.SideSell, 50000, 0.05),
		obs("BTCUSDT", models.SideBuy, 50000, 0.05),
	)

	time.Sleep(150 * time.Millisecond)
	calls := gate.snapshot()
	require.Len(t, calls, 2)
	sides := map[models.Side]bool{calls[0].side: true, calls[1].side: true}
	assert.True(t, sides[models.SideBuy] && sides[models.SideSell])
}

// Крупная ликвидация даёт инфо-уведомление, не ломая дебаунс.
func TestDetector_BigLiquidationNotifies(t *testing.T) {
	gate := &fakeGate{}
	n := &fakeNotifier{}
	d := New(testParams(), gate, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	events <- event(obs("BTCUSDT", models.SideSell, 50000, 3)) // 150000 USD

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, n.count())
	assert.Len(t, gate.snapshot(), 1)
}

type stuckNotifier struct {
	release chan struct{}
}

func (n *stuckNotifier) Sendf(string, ...any) { <-n.release }

// Зависший нотифайер (медленный телеграм) не должен останавливать
// приём событий и срабатывание таймеров.
func TestDetector_SlowNotifierDoesNotStallLoop(t *testing.T) {
	gate := &fakeGate{}
	n := &stuckNotifier{release: make(chan struct{})}
	defer close(n.release)

	d := New(testParams(), gate, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan models.LiquidationEvent)
	go d.Run(ctx, events)

	// крупная ликвидация вешает нотифайер...
	events <- event(obs("BTCUSDT", models.SideSell, 50000, 3)) // 150000 USD

	// ...а цикл продолжает обрабатывать события и таймеры
	select {
	case events <- event(obs("ETHUSDT", models.SideBuy, 3000, 1)): // 3000 USD
	case <-time.After(time.Second):
		t.Fatal("event loop застрял на отправке уведомления")
	}

	time.Sleep(150 * time.Millisecond)
	calls := gate.snapshot()
	require.NotEmpty(t, calls)
	found := false
	for _, c := range calls {
		if c.symbol == "ETHUSDT" && c.side == models.SideSell {
			found = true
		}
	}
	assert.True(t, found, "каскад ETHUSDT должен был сработать, calls=%v", calls)
}

// Выстрел остановленного таймера, догнавший замену: кэш новее baseline — no-op.
func TestDetector_SupersededFireIsNoop(t *testing.T) {
	gate := &fakeGate{}
	p := testParams()
	p.Quiescence = time.Hour // реальные таймеры не должны успеть
	d := New(p, gate, &fakeNotifier{})
	defer d.stopTimers()

	t0 := time.Unix(1700000000, 0)
	clock := t0
	d.now = func() time.Time { return clock }

	ctx := context.Background()
	d.handleEvent(ctx, event(obs("BTCUSDT", models.SideSell, 50000, 0.05)))

	clock = t0.Add(2 * time.Second)
	d.handleEvent(ctx, event(obs("BTCUSDT", models.SideSell, 50000, 0.05)))

	key := timerKey{Symbol: "BTCUSDT", Side: models.SideSell}

	// устаревший baseline — решение за более новым таймером
	d.handleFire(ctx, fireMsg{key: key, baseline: t0})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, gate.snapshot())
	_, ok := d.timers[key]
	assert.True(t, ok, "новый таймер должен остаться взведённым")

	// актуальный baseline — срабатываем
	d.handleFire(ctx, fireMsg{key: key, baseline: clock})
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, gate.snapshot(), 1)
	_, ok = d.timers[key]
	assert.False(t, ok)
}

// Выстрел по уже выселенной записи кэша — no-op с чисткой таймера.
func TestDetector_FireAfterEvictionIsNoop(t *testing.T) {
	gate := &fakeGate{}
	d := New(testParams(), gate, &fakeNotifier{})

	key := timerKey{Symbol: "BTCUSDT", Side: models.SideSell}
	d.timers[key] = time.NewTimer(time.Hour)

	d.handleFire(context.Background(), fireMsg{key: key, baseline: time.Now()})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, gate.snapshot())
	assert.Empty(t, d.timers)
}

func TestDetector_EvictStale(t *testing.T) {
	d := New(testParams(), &fakeGate{}, &fakeNotifier{})

	t0 := time.Unix(1700000000, 0)
	clock := t0
	d.now = func() time.Time { return clock }
	defer d.stopTimers()

	d.handleEvent(context.Background(), event(obs("BTCUSDT", models.SideSell, 50000, 0.05)))
	require.Contains(t, d.cache, "BTCUSDT")

	d.evictStale(t0.Add(d.p.EvictAfter - time.Second))
	assert.Contains(t, d.cache, "BTCUSDT")

	d.evictStale(t0.Add(d.p.EvictAfter))
	assert.NotContains(t, d.cache, "BTCUSDT")
}

// Свежая активность по одной стороне удерживает запись целиком.
func TestDetector_FreshSideBlocksEviction(t *testing.T) {
	d := New(testParams(), &fakeGate{}, &fakeNotifier{})

	t0 := time.Unix(1700000000, 0)
	clock := t0
	d.now = func() time.Time { return clock }
	defer d.stopTimers()

	ctx := context.Background()
	d.handleEvent(ctx, event(obs("BTCUSDT", models.SideSell, 50000, 0.05)))

	clock = t0.Add(d.p.EvictAfter - time.Second)
	d.handleEvent(ctx, event(obs("BTCUSDT", models.SideBuy, 50000, 0.05)))

	d.evictStale(t0.Add(d.p.EvictAfter))
	assert.Contains(t, d.cache, "BTCUSDT")
}
