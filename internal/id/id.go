// Package id generates trade identifiers and de-duplication keys.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// NewTradeID returns a fresh random trade ID.
func NewTradeID() string {
	return uuid.NewString()
}

// SourceKey identifies the source trade behind rec so a re-import of the
// same export is recognized. The broker deal ID is used when present;
// otherwise the key hashes the fields that describe the trade, at the
// precision the journal export writes them (P&L in cents, times in whole
// seconds) so an exported journal maps back onto the same keys. Two rows
// that agree on every hashed field are the same trade.
// "deal:acct-1:123456" or "sha256:<hex>"
func SourceKey(rec model.TradeImportRecord) string {
	if rec.DealID != nil && strings.TrimSpace(*rec.DealID) != "" {
		return "deal:" + rec.AccountID + ":" + strings.TrimSpace(*rec.DealID)
	}

	parts := []string{
		rec.AccountID,
		rec.Instrument,
		rec.EntryTimestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
		rec.ExitTimestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
		formatFloat(rec.Entry),
		formatFloat(rec.Exit),
		decimal.NewFromFloat(rec.PnL).StringFixed(2),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
