// Package journal exports committed trades as CSV.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// Header is the CSV header of a trade export. Field columns use canonical
// names, so an export maps onto itself when imported again.
const Header = "id,account_id,instrument,pnl,entry,exit,entry_timestamp,exit_timestamp,rr," +
	"lot_size,commission,swap,stop_loss,take_profit,deal_id,order_id,notes,tags"

const (
	numFields      = 18
	timeFormat     = time.RFC3339
	colID          = 0
	colAccountID   = 1
	colInstrument  = 2
	colPnL         = 3
	colEntry       = 4
	colExit        = 5
	colEntryTime   = 6
	colExitTime    = 7
	colRR          = 8
	colLotSize     = 9
	colCommission  = 10
	colSwap        = 11
	colStopLoss    = 12
	colTakeProfit  = 13
	colDealID      = 14
	colOrderID     = 15
	colNotes       = 16
	colTags        = 17
	tagSeparator   = ";"
	rrDecimalPlace = 4
)

// WriteTrades writes trades to w, header first.
func WriteTrades(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range trades {
		if err := cw.Write(MarshalTrade(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTrade converts a Trade to a CSV row. Money columns have two
// decimals; prices keep their full precision. Absent optional fields are
// empty cells.
func MarshalTrade(t model.Trade) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colAccountID] = t.AccountID
	row[colInstrument] = t.Instrument
	row[colPnL] = money(t.PnL)
	row[colEntry] = price(t.Entry)
	row[colExit] = price(t.Exit)
	row[colEntryTime] = t.EntryTimestamp.UTC().Format(timeFormat)
	row[colExitTime] = t.ExitTimestamp.UTC().Format(timeFormat)
	row[colRR] = decimal.NewFromFloat(t.RR).Round(rrDecimalPlace).String()

	if t.LotSize != nil {
		row[colLotSize] = price(*t.LotSize)
	}
	if t.Commission != nil {
		row[colCommission] = money(*t.Commission)
	}
	if t.Swap != nil {
		row[colSwap] = money(*t.Swap)
	}
	if t.StopLoss != nil {
		row[colStopLoss] = price(*t.StopLoss)
	}
	if t.TakeProfit != nil {
		row[colTakeProfit] = price(*t.TakeProfit)
	}
	if t.DealID != nil {
		row[colDealID] = *t.DealID
	}
	if t.OrderID != nil {
		row[colOrderID] = *t.OrderID
	}

	row[colNotes] = t.Notes
	row[colTags] = strings.Join(t.Tags, tagSeparator)
	return row
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func price(v float64) string {
	return decimal.NewFromFloat(v).String()
}
