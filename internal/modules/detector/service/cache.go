package service

import (
	"time"

	"liq_bot/internal/models"
)

// cacheEntry — таймстемпы последних квалифицированных ликвидаций по символу.
// Инвариант: по каждой стороне время не убывает.
type cacheEntry struct {
	lastBuySeenAt  time.Time
	lastSellSeenAt time.Time
}

func (e *cacheEntry) seenAt(side models.Side) time.Time {
	if side == models.SideBuy {
		return e.lastBuySeenAt
	}
	return e.lastSellSeenAt
}

func (e *cacheEntry) touch(side models.Side, t time.Time) {
	if side == models.SideBuy {
		if t.After(e.lastBuySeenAt) {
			e.lastBuySeenAt = t
		}
		return
	}
	if t.After(e.lastSellSeenAt) {
		e.lastSellSeenAt = t
	}
}

// stale — обе стороны молчат дольше ttl. Нулевой таймстемп считаем молчанием.
func (e *cacheEntry) stale(now time.Time, ttl time.Duration) bool {
	buyOK := e.lastBuySeenAt.IsZero() || now.Sub(e.lastBuySeenAt) >= ttl
	sellOK := e.lastSellSeenAt.IsZero() || now.Sub(e.lastSellSeenAt) >= ttl
	return buyOK && sellOK
}

// evictStale чистит записи, у которых обе стороны неактивны >= EvictAfter.
// От состояния таймеров не зависит.
func (d *Detector) evictStale(now time.Time) {
	for symbol, e := range d.cache {
		if e.stale(now, d.p.EvictAfter) {
			delete(d.cache, symbol)
		}
	}
}
