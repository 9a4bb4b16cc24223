package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"liq_bot/internal/models"
	"liq_bot/pkg/db"
)

// Journal — append-only аудит закрытых трейдов в postgres.
// На старте ничего не читает: всё состояние бота живёт в памяти.
type Journal struct {
	tm *db.PgTxManager
}

func NewJournal(tm *db.PgTxManager) *Journal {
	return &Journal{tm: tm}
}

const insertClosedTrade = `
INSERT INTO closed_trades (symbol, side, entry_price, exit_price, pnl, closed_type, closed_at, raw)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (j *Journal) Insert(ctx context.Context, t models.ClosedTrade) error {
	if j == nil || j.tm == nil {
		return nil // журнал выключен (пустой DSN)
	}

	raw, err := sonic.Marshal(t)
	if err != nil {
		return err
	}

	return j.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertClosedTrade,
			t.Symbol,
			string(t.Side),
			t.EntryPrice,
			t.ExitPrice,
			t.Pnl,
			string(t.ClosedType),
			t.ClosedAt,
			raw,
		)
		return err
	})
}
