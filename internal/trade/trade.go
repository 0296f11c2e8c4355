// Package trade turns validated rows into import records.
package trade

import (
	"math"

	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/validate"
)

// RiskReward returns the signed risk:reward multiple for a valid outcome.
//
// With entry, stop loss and exit present and a non-zero pnl, the magnitude is
// |exit-entry| / |entry-stop|, signed by pnl. Otherwise the result is the
// sign of pnl (+1, -1 or 0). That fallback is a placeholder meaning "no risk
// data", not a realized 1:1 trade.
func RiskReward(o validate.Outcome) float64 {
	pnl, _ := o.Number(model.FieldPnL)
	entry, hasEntry := o.Number(model.FieldEntry)
	exit, hasExit := o.Number(model.FieldExit)
	stop, hasStop := o.Number(model.FieldStopLoss)

	if hasEntry && hasExit && hasStop && pnl != 0 {
		risk := math.Abs(entry - stop)
		if risk > 0 {
			mag := math.Abs(exit-entry) / risk
			if pnl > 0 {
				return mag
			}
			return -mag
		}
	}
	return sign(pnl)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Defaults are the fixed values stamped on every record of an import.
type Defaults struct {
	AccountID string
	Notes     string
	Tags      []string
}

// BuildRecord assembles the import record for a valid outcome. Optional
// fields are set only when they parsed.
func BuildRecord(o validate.Outcome, d Defaults) model.TradeImportRecord {
	rec := model.TradeImportRecord{
		AccountID:  d.AccountID,
		RR:         RiskReward(o),
		TradeTaken: true,
		Notes:      d.Notes,
		Tags:       append([]string(nil), d.Tags...),
	}
	rec.Instrument, _ = o.String(model.FieldInstrument)
	rec.PnL, _ = o.Number(model.FieldPnL)
	rec.Entry, _ = o.Number(model.FieldEntry)
	rec.Exit, _ = o.Number(model.FieldExit)
	rec.EntryTimestamp, _ = o.Time(model.FieldEntryTimestamp)
	rec.ExitTimestamp, _ = o.Time(model.FieldExitTimestamp)

	rec.LotSize = number(o, model.FieldLotSize)
	rec.Commission = number(o, model.FieldCommission)
	rec.Swap = number(o, model.FieldSwap)
	rec.StopLoss = number(o, model.FieldStopLoss)
	rec.TakeProfit = number(o, model.FieldTakeProfit)
	rec.DealID = text(o, model.FieldDealID)
	rec.OrderID = text(o, model.FieldOrderID)
	return rec
}

// BuildRecords builds records for the valid outcomes of s, in input order.
func BuildRecords(s validate.Summary, d Defaults) []model.TradeImportRecord {
	valid := s.ValidOutcomes()
	recs := make([]model.TradeImportRecord, len(valid))
	for i, o := range valid {
		recs[i] = BuildRecord(o, d)
	}
	return recs
}

func number(o validate.Outcome, f model.Field) *float64 {
	v, ok := o.Number(f)
	if !ok {
		return nil
	}
	return &v
}

func text(o validate.Outcome, f model.Field) *string {
	v, ok := o.String(f)
	if !ok {
		return nil
	}
	return &v
}
