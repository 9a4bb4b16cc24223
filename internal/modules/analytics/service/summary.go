package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"liq_bot/internal/models"
	"liq_bot/pkg/logger"
)

type Notifier interface {
	Sendf(format string, args ...any)
}

// Summary — дневная сводка. Создаётся один раз на старте процесса;
// переката в полночь нет намеренно: /stats показывает статистику с запуска.
type Summary struct {
	n       Notifier
	journal *Journal

	mu          sync.Mutex
	date        time.Time
	totalOrders int
	profitable  int
	losses      int
	totalPnl    float64
	positions   []models.ClosedTrade
}

func NewSummary(n Notifier, journal *Journal) *Summary {
	return &Summary{
		n:       n,
		journal: journal,
		date:    time.Now(),
	}
}

// Record учитывает закрытый трейд и шлёт уведомление с итогом + сводкой.
// Повторный Record того же трейда посчитается дважды — дедупликации нет,
// владелец трейда (трекер) отдаёт каждый ровно один раз.
func (s *Summary) Record(ctx context.Context, t models.ClosedTrade) {
	s.mu.Lock()
	s.totalOrders++
	if t.Profitable() {
		s.profitable++
	} else {
		s.losses++
	}
	s.totalPnl += t.Pnl
	s.positions = append(s.positions, t)
	report := s.renderLocked()
	s.mu.Unlock()

	outcome := "🟢"
	if t.Pnl < 0 {
		outcome = "🔴"
	}
	s.n.Sendf("%s [%s] %s закрыта (%s)\nentry %.6g -> exit %.6g | pnl %+.2f USDT\n\n%s",
		outcome, t.Symbol, t.Side, t.ClosedType, t.EntryPrice, t.ExitPrice, t.Pnl, report)

	if err := s.journal.Insert(ctx, t); err != nil {
		// журнал — только аудит, его падение не трогает сводку
		logger.Error("[STATS] journal insert %s: %v", t.Symbol, err)
	}
}

// Report — текущая сводка строкой.
func (s *Summary) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *Summary) renderLocked() string {
	winRate := 0.0
	if s.totalOrders > 0 {
		winRate = float64(s.profitable) / float64(s.totalOrders) * 100.0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Сводка за %s\n", s.date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Ордеров: %d\n", s.totalOrders)
	fmt.Fprintf(&b, "В плюс: %d | В минус: %d\n", s.profitable, s.losses)
	fmt.Fprintf(&b, "Винрейт: %.2f%%\n", winRate)
	fmt.Fprintf(&b, "PnL: %+.2f USDT", s.totalPnl)
	return b.String()
}
