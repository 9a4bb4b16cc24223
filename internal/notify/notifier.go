package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"liq_bot/internal/models"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
	SendService(ctx context.Context, format string, args ...any)
}

// StatsSource — текущая сводка аналитики (/stats).
type StatsSource interface {
	Report() string
}

// PositionsSource — открытые отслеживаемые позиции (/positions).
type PositionsSource interface {
	Open() []models.TrackedPosition
}

// Telegram — пассивный нотифайер: fire-and-forget отправка + две
// read-only команды. Ошибки отправки логируются и никогда не фатальны.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	stats     StatsSource
	positions PositionsSource
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
	}, nil
}

// BindSources подключает источники для команд; до привязки команды молчат.
func (t *Telegram) BindSources(stats StatsSource, positions PositionsSource) {
	t.stats = stats
	t.positions = positions
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		log.Printf("[TG] send error: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	t.Sendf(format, args...)
}

func (t *Telegram) handleStats() {
	if t.stats == nil {
		t.Send("❗️ Статистика ещё не инициализирована")
		return
	}
	t.Send(t.stats.Report())
}

func (t *Telegram) handlePositions() {
	if t.positions == nil {
		t.Send("❗️ Трекер ещё не инициализирован")
		return
	}
	open := t.positions.Open()
	if len(open) == 0 {
		t.Send("📭 Отслеживаемых позиций нет")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Отслеживаемые позиции:\n")
	for _, p := range open {
		fmt.Fprintf(&b, "- %s [%s] size=%.6g @ %.6g TP=%.6g SL=%.6g (с %s)\n",
			p.Symbol, p.Side, p.Size, p.EntryPrice, p.TakeProfit, p.StopLoss,
			p.OpenedAt.Format("15:04:05"))
	}
	t.Send(b.String())
}

// Start: long-polling для команд /stats и /positions.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}

				switch upd.Message.Command() {
				case "stats":
					go t.handleStats()
				case "positions":
					go t.handlePositions()
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка без телеграма, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
func (s *Stdout) SendService(ctx context.Context, format string, args ...any) {
	log.Printf(format, args...)
}
