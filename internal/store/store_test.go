package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelog-dev/tradelog/internal/model"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func sampleRecords() []model.TradeImportRecord {
	return []model.TradeImportRecord{
		{
			AccountID:      "acct-1",
			Instrument:     "GBPUSD",
			PnL:            -15,
			Entry:          1.275,
			Exit:           1.278,
			EntryTimestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
			ExitTimestamp:  time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
			RR:             -0.6,
			TradeTaken:     true,
			Notes:          "Imported via MT5 CSV.",
			Tags:           []string{"CSV Import", "MT5"},
			Swap:           f64(-0.25),
			DealID:         str("123457"),
		},
		{
			AccountID:      "acct-1",
			Instrument:     "EURUSD",
			PnL:            40,
			Entry:          1.10123,
			Exit:           1.10523,
			EntryTimestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			ExitTimestamp:  time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
			RR:             1,
			TradeTaken:     true,
			Notes:          "Imported via MT5 CSV.",
			Tags:           []string{"CSV Import", "MT5"},
		},
		{
			AccountID:      "acct-2",
			Instrument:     "XAUUSD",
			PnL:            250,
			Entry:          2030.1,
			Exit:           2035.1,
			EntryTimestamp: time.Date(2024, 2, 6, 13, 0, 0, 0, time.UTC),
			ExitTimestamp:  time.Date(2024, 2, 6, 14, 0, 0, 0, time.UTC),
			RR:             1,
			TradeTaken:     true,
		},
	}
}

func openSQLite(t *testing.T) (*SQLiteTrades, func() error) {
	t.Helper()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteTrades(db, zerolog.Nop()), db.Close
}

func repositories(t *testing.T) map[string]TradeRepository {
	sqlite, _ := openSQLite(t)
	return map[string]TradeRepository{
		"sqlite": sqlite,
		"memory": NewMemoryTrades(),
	}
}

func TestRepository_AddAndList(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n, err := repo.AddTrades(ctx, sampleRecords())
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			trades, err := repo.List(ctx, "acct-1")
			require.NoError(t, err)
			require.Len(t, trades, 2)

			// Ordered by exit time.
			assert.Equal(t, "EURUSD", trades[0].Instrument)
			assert.Equal(t, "GBPUSD", trades[1].Instrument)

			eur := trades[0]
			assert.NotEmpty(t, eur.ID)
			assert.NotEmpty(t, eur.SourceKey)
			assert.False(t, eur.ImportedAt.IsZero())
			assert.Equal(t, 40.0, eur.PnL)
			assert.Equal(t, 1.10123, eur.Entry)
			assert.True(t, eur.TradeTaken)
			assert.Equal(t, []string{"CSV Import", "MT5"}, eur.Tags)
			assert.True(t, eur.EntryTimestamp.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
			assert.Nil(t, eur.Swap)
			assert.Nil(t, eur.DealID)

			gbp := trades[1]
			require.NotNil(t, gbp.Swap)
			assert.Equal(t, -0.25, *gbp.Swap)
			require.NotNil(t, gbp.DealID)
			assert.Equal(t, "123457", *gbp.DealID)
			assert.Nil(t, gbp.LotSize)

			all, err := repo.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestRepository_SkipsDuplicates(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			recs := sampleRecords()

			n, err := repo.AddTrades(ctx, recs[:2])
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = repo.AddTrades(ctx, recs)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			// Same deal in one batch is stored once.
			dup := recs[0]
			dup.AccountID = "acct-3"
			n, err = repo.AddTrades(ctx, []model.TradeImportRecord{dup, dup})
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			all, err := repo.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestRepository_EmptyBatch(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			n, err := repo.AddTrades(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			trades, err := repo.List(context.Background(), "acct-1")
			require.NoError(t, err)
			assert.Empty(t, trades)
		})
	}
}

func TestSQLiteTrades_ClosedDatabaseFails(t *testing.T) {
	repo, closeDB := openSQLite(t)
	require.NoError(t, closeDB())

	_, err := repo.AddTrades(context.Background(), sampleRecords())
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")
	require.NoError(t, Migrate(path))
	require.NoError(t, Migrate(path))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='trades'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "trades", name)
}

func TestMemoryTrades_ListReturnsCopies(t *testing.T) {
	repo := NewMemoryTrades()
	_, err := repo.AddTrades(context.Background(), sampleRecords()[:1])
	require.NoError(t, err)

	trades, _ := repo.List(context.Background(), "acct-1")
	trades[0].Tags[0] = "changed"

	again, _ := repo.List(context.Background(), "acct-1")
	assert.Equal(t, "CSV Import", again[0].Tags[0])
}

func TestMemoryTrades_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryTrades().AddTrades(ctx, sampleRecords())
	assert.ErrorIs(t, err, context.Canceled)
}
