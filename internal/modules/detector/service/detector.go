package service

import (
	"context"
	"time"

	"liq_bot/internal/models"
	"liq_bot/pkg/logger"
)

// Gate — исполнитель контр-трендового ордера (Order Execution Gate).
// Все терминальные исходы (submitted/skipped/failed) гейт репортит сам.
type Gate interface {
	Execute(ctx context.Context, symbol string, side models.Side) error
}

type Notifier interface {
	Sendf(format string, args ...any)
}

type Params struct {
	MinNotionalUSD float64       // ниже порога событие игнорируется целиком
	BigNotionalUSD float64       // разовая крупная ликвидация: инфо-уведомление
	Quiescence     time.Duration // окно тишины Q
	EvictAfter     time.Duration // чистка кэша символа
}

type timerKey = models.PosKey

// fireMsg — сработал таймер тишины; baseline — seenAt, захваченный при взводе.
type fireMsg struct {
	key      timerKey
	baseline time.Time
}

// Detector — дебаунс каскадов ликвидаций.
//
// Кэш и мапа таймеров принадлежат единственной горутине Run: события,
// срабатывания таймеров и чистка кэша сериализуются через select, поэтому
// локов нет. Таймер из своей горутины только постит fireMsg в канал.
type Detector struct {
	p    Params
	gate Gate
	n    Notifier
	now  func() time.Time

	fires chan fireMsg

	cache  map[string]*cacheEntry
	timers map[timerKey]*time.Timer
}

func New(p Params, gate Gate, n Notifier) *Detector {
	return &Detector{
		p:      p,
		gate:   gate,
		n:      n,
		now:    time.Now,
		fires:  make(chan fireMsg, 256),
		cache:  make(map[string]*cacheEntry),
		timers: make(map[timerKey]*time.Timer),
	}
}

// Run — единственный поток управления детектора.
func (d *Detector) Run(ctx context.Context, events <-chan models.LiquidationEvent) {
	gc := time.NewTicker(time.Second)
	defer gc.Stop()

	for {
		select {
		case <-ctx.Done():
			d.stopTimers()
			return
		case ev, ok := <-events:
			if !ok {
				d.stopTimers()
				return
			}
			d.handleEvent(ctx, ev)
		case msg := <-d.fires:
			d.handleFire(ctx, msg)
		case <-gc.C:
			d.evictStale(d.now())
		}
	}
}

// handleEvent — Idle -> Armed либо Armed -> Armed (сброс отсчёта).
func (d *Detector) handleEvent(ctx context.Context, ev models.LiquidationEvent) {
	for _, obs := range ev.Observations {
		notional := obs.NotionalUSD()

		// Разовая крупная ликвидация: уведомляем, машину не трогаем.
		// Отправка из горутины — сеть не должна блокировать event loop.
		if d.p.BigNotionalUSD > 0 && notional >= d.p.BigNotionalUSD {
			go d.n.Sendf("🐳 [%s] крупная ликвидация %s: %.0f USD @ %.6g",
				obs.Symbol, obs.Side, notional, obs.Price)
		}

		if notional < d.p.MinNotionalUSD {
			continue // не взводим и кэш не трогаем
		}

		seen := d.now()
		e := d.cache[obs.Symbol]
		if e == nil {
			e = &cacheEntry{}
			d.cache[obs.Symbol] = e
		}
		e.touch(obs.Side, seen)

		key := timerKey{Symbol: obs.Symbol, Side: obs.Side}
		if t, ok := d.timers[key]; ok {
			t.Stop() // каскад продолжается — перезапускаем отсчёт
		}

		baseline := seen
		d.timers[key] = time.AfterFunc(d.p.Quiescence, func() {
			select {
			case d.fires <- fireMsg{key: key, baseline: baseline}:
			case <-ctx.Done():
			}
		})
	}
}

// handleFire — Armed -> Fired, если отсчёт не был перезапущен.
//
// Сравниваем ТЕКУЩЕЕ значение кэша с захваченным baseline: остановленный
// таймер мог успеть выстрелить уже после того, как его заменили — тогда
// кэш новее и это no-op, решение примет перезапущенный таймер.
func (d *Detector) handleFire(ctx context.Context, msg fireMsg) {
	e := d.cache[msg.key.Symbol]
	if e == nil {
		// запись уже выселена — каскад давно мёртв
		delete(d.timers, msg.key)
		return
	}
	if !e.seenAt(msg.key.Side).Equal(msg.baseline) {
		return // superseded: в timers уже лежит более новый таймер
	}
	delete(d.timers, msg.key)

	contrarian := msg.key.Side.Opposite()
	logger.Info("[DETECT] %s: каскад %s исчерпан, открываем %s",
		msg.key.Symbol, msg.key.Side, contrarian)

	// сеть не должна блокировать приём событий
	go func() {
		if err := d.gate.Execute(ctx, msg.key.Symbol, contrarian); err != nil {
			logger.Error("[DETECT] %s: execute %s: %v", msg.key.Symbol, contrarian, err)
		}
	}()
}

func (d *Detector) stopTimers() {
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
