package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradelog-dev/tradelog/internal/id"
	"github.com/tradelog-dev/tradelog/internal/model"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const insertTrade = `
INSERT INTO trades (
    id, source_key, account_id, instrument, pnl, entry, exit,
    entry_timestamp, exit_timestamp, rr, trade_taken, notes, tags,
    lot_size, commission, swap, stop_loss, take_profit, deal_id, order_id,
    imported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_key) DO NOTHING`

const selectTrades = `
SELECT id, source_key, account_id, instrument, pnl, entry, exit,
       entry_timestamp, exit_timestamp, rr, trade_taken, notes, tags,
       lot_size, commission, swap, stop_loss, take_profit, deal_id, order_id,
       imported_at
FROM trades`

// SQLiteTrades is a TradeRepository backed by the trades table.
type SQLiteTrades struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewSQLiteTrades returns a repository over a migrated database.
func NewSQLiteTrades(db *sql.DB, log zerolog.Logger) *SQLiteTrades {
	return &SQLiteTrades{
		db:  db,
		log: log.With().Str("repo", "trades").Logger(),
		now: time.Now,
	}
}

// AddTrades inserts recs in one transaction. Either the whole batch is
// written or none of it is.
func (s *SQLiteTrades) AddTrades(ctx context.Context, recs []model.TradeImportRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	inserted := 0
	importedAt := s.now().UTC().Format(timeLayout)
	err := WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertTrade)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range recs {
			tags := rec.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, err := json.Marshal(tags)
			if err != nil {
				return fmt.Errorf("encoding tags: %w", err)
			}

			res, err := stmt.ExecContext(ctx,
				id.NewTradeID(), id.SourceKey(rec), rec.AccountID, rec.Instrument,
				rec.PnL, rec.Entry, rec.Exit,
				rec.EntryTimestamp.UTC().Format(timeLayout), rec.ExitTimestamp.UTC().Format(timeLayout),
				rec.RR, rec.TradeTaken, rec.Notes, string(tagsJSON),
				rec.LotSize, rec.Commission, rec.Swap, rec.StopLoss, rec.TakeProfit,
				rec.DealID, rec.OrderID,
				importedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting trade %d (%s): %w", i+1, rec.Instrument, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("inserting trade %d (%s): %w", i+1, rec.Instrument, err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Int("records", len(recs)).
		Int("inserted", inserted).
		Int("duplicates", len(recs)-inserted).
		Msg("batch committed")
	return inserted, nil
}

// List returns stored trades ordered by exit time, then insertion order.
func (s *SQLiteTrades) List(ctx context.Context, accountID string) ([]model.Trade, error) {
	query := selectTrades
	var args []any
	if accountID != "" {
		query += " WHERE account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY exit_timestamp, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (model.Trade, error) {
	var (
		t                           model.Trade
		entryTS, exitTS, importedAt string
		tagsJSON                    string
		lot, fee, swap, sl, tp      sql.NullFloat64
		deal, order                 sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.SourceKey, &t.AccountID, &t.Instrument, &t.PnL, &t.Entry, &t.Exit,
		&entryTS, &exitTS, &t.RR, &t.TradeTaken, &t.Notes, &tagsJSON,
		&lot, &fee, &swap, &sl, &tp, &deal, &order,
		&importedAt,
	)
	if err != nil {
		return t, fmt.Errorf("scanning trade: %w", err)
	}

	if t.EntryTimestamp, err = time.Parse(timeLayout, entryTS); err != nil {
		return t, fmt.Errorf("trade %s: entry_timestamp: %w", t.ID, err)
	}
	if t.ExitTimestamp, err = time.Parse(timeLayout, exitTS); err != nil {
		return t, fmt.Errorf("trade %s: exit_timestamp: %w", t.ID, err)
	}
	if t.ImportedAt, err = time.Parse(timeLayout, importedAt); err != nil {
		return t, fmt.Errorf("trade %s: imported_at: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return t, fmt.Errorf("trade %s: tags: %w", t.ID, err)
	}

	t.LotSize = nullFloat(lot)
	t.Commission = nullFloat(fee)
	t.Swap = nullFloat(swap)
	t.StopLoss = nullFloat(sl)
	t.TakeProfit = nullFloat(tp)
	t.DealID = nullString(deal)
	t.OrderID = nullString(order)
	return t, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
