package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/store"
)

// DefaultChunkSize is the number of records committed per store call.
const DefaultChunkSize = 50

// ProgressFunc receives the completed share of an import in [0, 100].
type ProgressFunc func(percent float64)

// Result summarizes an import run.
type Result struct {
	Total     int // records submitted
	Committed int // records accepted by the store
	Inserted  int // committed records that were not already stored
}

// Duplicates returns the committed records the store already had.
func (r Result) Duplicates() int {
	return r.Committed - r.Inserted
}

// PersistenceError is a store failure that stopped an import. Records
// committed before the failure stay committed.
type PersistenceError struct {
	Committed int
	Err       error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// Importer commits records to a store in chunks, in input order.
type Importer struct {
	repo      store.TradeRepository
	chunkSize int
	log       zerolog.Logger
}

// NewImporter returns an Importer writing to repo. A chunkSize below 1
// means DefaultChunkSize.
func NewImporter(repo store.TradeRepository, chunkSize int, log zerolog.Logger) *Importer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Importer{
		repo:      repo,
		chunkSize: chunkSize,
		log:       log.With().Str("component", "importer").Logger(),
	}
}

// Import commits recs one chunk at a time, calling progress after each
// chunk. Progress never decreases during a run and reaches 100 only when
// every record is committed.
//
// A store failure aborts the remaining chunks, reports 0 and returns a
// *PersistenceError. Cancelling ctx stops before the next chunk the same way.
func (im *Importer) Import(ctx context.Context, recs []model.TradeImportRecord, progress ProgressFunc) (Result, error) {
	report := func(p float64) {
		if progress != nil {
			progress(p)
		}
	}

	res := Result{Total: len(recs)}
	for start := 0; start < len(recs); start += im.chunkSize {
		if err := ctx.Err(); err != nil {
			im.log.Warn().Int("committed", res.Committed).Int("total", res.Total).Msg("import cancelled")
			report(0)
			return res, &PersistenceError{
				Committed: res.Committed,
				Err:       fmt.Errorf("import cancelled after %d of %d records: %w", res.Committed, res.Total, err),
			}
		}

		end := min(start+im.chunkSize, len(recs))
		n, err := im.repo.AddTrades(ctx, recs[start:end])
		if err != nil {
			im.log.Error().Err(err).Int("committed", res.Committed).Int("total", res.Total).Msg("import failed")
			report(0)
			return res, &PersistenceError{Committed: res.Committed, Err: err}
		}

		res.Committed = end
		res.Inserted += n
		report(float64(res.Committed) * 100 / float64(res.Total))
	}

	if res.Total == 0 {
		report(100)
	}
	im.log.Info().
		Int("total", res.Total).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates()).
		Msg("import complete")
	return res, nil
}
