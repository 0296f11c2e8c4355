package model

import (
	"fmt"
	"strings"
)

// Field is a canonical trade field that source headers are mapped onto.
type Field string

const (
	FieldInstrument     Field = "instrument"
	FieldPnL            Field = "pnl"
	FieldExitTimestamp  Field = "exit_timestamp"
	FieldEntryTimestamp Field = "entry_timestamp"
	FieldEntry          Field = "entry"
	FieldExit           Field = "exit"
	FieldLotSize        Field = "lot_size"
	FieldCommission     Field = "commission"
	FieldSwap           Field = "swap"
	FieldStopLoss       Field = "stop_loss"
	FieldTakeProfit     Field = "take_profit"
	FieldDealID         Field = "deal_id"
	FieldOrderID        Field = "order_id"
)

// FieldKind says how a raw cell for a field is interpreted.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindTime
)

// Fields is the closed canonical field set, in display order.
var Fields = []Field{
	FieldInstrument,
	FieldPnL,
	FieldExitTimestamp,
	FieldEntryTimestamp,
	FieldEntry,
	FieldExit,
	FieldLotSize,
	FieldCommission,
	FieldSwap,
	FieldStopLoss,
	FieldTakeProfit,
	FieldDealID,
	FieldOrderID,
}

// RequiredFields must all parse for a row to be importable.
var RequiredFields = []Field{
	FieldInstrument,
	FieldPnL,
	FieldExitTimestamp,
	FieldEntryTimestamp,
	FieldEntry,
	FieldExit,
}

// Kind returns how values of f are parsed.
func (f Field) Kind() FieldKind {
	switch f {
	case FieldPnL, FieldEntry, FieldExit, FieldLotSize, FieldCommission,
		FieldSwap, FieldStopLoss, FieldTakeProfit:
		return KindNumber
	case FieldEntryTimestamp, FieldExitTimestamp:
		return KindTime
	default:
		return KindString
	}
}

// Required reports whether f is in the required set.
func (f Field) Required() bool {
	for _, r := range RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}

// Valid reports whether f is a canonical field.
func (f Field) Valid() bool {
	for _, c := range Fields {
		if c == f {
			return true
		}
	}
	return false
}

// ParseField resolves a canonical field name, case-insensitively.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown field %q", s)
	}
	return f, nil
}
