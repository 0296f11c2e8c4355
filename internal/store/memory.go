package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tradelog-dev/tradelog/internal/id"
	"github.com/tradelog-dev/tradelog/internal/model"
)

// MemoryTrades is an in-memory TradeRepository, used for dry runs and tests.
type MemoryTrades struct {
	mu     sync.RWMutex
	trades []model.Trade
	keys   map[string]bool
}

// NewMemoryTrades constructs an empty repository.
func NewMemoryTrades() *MemoryTrades {
	return &MemoryTrades{keys: make(map[string]bool)}
}

// AddTrades stores recs, skipping any whose source key is already present.
func (r *MemoryTrades) AddTrades(ctx context.Context, recs []model.TradeImportRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	inserted := 0
	for _, rec := range recs {
		key := id.SourceKey(rec)
		if r.keys[key] {
			continue
		}
		r.keys[key] = true
		rec.Tags = append([]string(nil), rec.Tags...)
		r.trades = append(r.trades, model.Trade{
			ID:                id.NewTradeID(),
			SourceKey:         key,
			ImportedAt:        now,
			TradeImportRecord: rec,
		})
		inserted++
	}
	return inserted, nil
}

// List returns copies of the stored trades ordered by exit time.
func (r *MemoryTrades) List(_ context.Context, accountID string) ([]model.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Trade
	for _, t := range r.trades {
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		t.Tags = append([]string(nil), t.Tags...)
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExitTimestamp.Before(out[j].ExitTimestamp)
	})
	return out, nil
}
