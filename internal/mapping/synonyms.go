package mapping

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// Table maps a normalized source header to the canonical field it denotes.
// New broker dialects are supported by adding entries, not code.
type Table map[string]model.Field

// NormalizeHeader lower-cases h and strips all whitespace.
// "Close Time" -> "closetime"
func NormalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, h)
}

// DefaultTable returns the built-in synonym table. Canonical field names are
// synonyms of themselves so exported journals map back without edits.
func DefaultTable() Table {
	t := Table{
		"symbol": model.FieldInstrument,
		"ticker": model.FieldInstrument,
		"pair":   model.FieldInstrument,
		"market": model.FieldInstrument,
		"item":   model.FieldInstrument,

		"profit":      model.FieldPnL,
		"p/l":         model.FieldPnL,
		"pl":          model.FieldPnL,
		"netpnl":      model.FieldPnL,
		"netprofit":   model.FieldPnL,
		"realizedpnl": model.FieldPnL,

		"closetime": model.FieldExitTimestamp,
		"exittime":  model.FieldExitTimestamp,
		"closedate": model.FieldExitTimestamp,

		"time":      model.FieldEntryTimestamp,
		"opentime":  model.FieldEntryTimestamp,
		"entrytime": model.FieldEntryTimestamp,
		"opendate":  model.FieldEntryTimestamp,

		"price":      model.FieldEntry,
		"openprice":  model.FieldEntry,
		"entryprice": model.FieldEntry,

		"closeprice": model.FieldExit,
		"exitprice":  model.FieldExit,

		"volume":  model.FieldLotSize,
		"lots":    model.FieldLotSize,
		"lotsize": model.FieldLotSize,
		"size":    model.FieldLotSize,

		"commission": model.FieldCommission,
		"fee":        model.FieldCommission,
		"fees":       model.FieldCommission,

		"swap":     model.FieldSwap,
		"rollover": model.FieldSwap,

		"sl":       model.FieldStopLoss,
		"s/l":      model.FieldStopLoss,
		"stoploss": model.FieldStopLoss,

		"tp":         model.FieldTakeProfit,
		"t/p":        model.FieldTakeProfit,
		"takeprofit": model.FieldTakeProfit,

		"deal":   model.FieldDealID,
		"dealid": model.FieldDealID,
		"ticket": model.FieldDealID,

		"order":   model.FieldOrderID,
		"orderid": model.FieldOrderID,
	}
	for _, f := range model.Fields {
		t[string(f)] = f
	}
	return t
}

// Clone returns an independent copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Extend adds header→field entries, normalizing headers. Entries override
// existing synonyms. Unknown field names are rejected and nothing is added.
func (t Table) Extend(extra map[string]string) error {
	parsed := make(map[string]model.Field, len(extra))
	for header, name := range extra {
		f, err := model.ParseField(name)
		if err != nil {
			return fmt.Errorf("synonym %q: %w", header, err)
		}
		key := NormalizeHeader(header)
		if key == "" {
			return fmt.Errorf("synonym for %s has an empty header", f)
		}
		parsed[key] = f
	}
	for k, f := range parsed {
		t[k] = f
	}
	return nil
}

// Keys returns the table's headers in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
