package model

import "time"

// RawRow maps a source header to its raw cell text for one data line.
type RawRow map[string]string

// TradeImportRecord is the shape handed to the trade store.
// Optional fields are nil unless the source supplied a parseable value.
type TradeImportRecord struct {
	AccountID      string    `json:"account_id"`
	Instrument     string    `json:"instrument"`
	PnL            float64   `json:"pnl"`
	Entry          float64   `json:"entry"`
	Exit           float64   `json:"exit"`
	EntryTimestamp time.Time `json:"entry_timestamp"`
	ExitTimestamp  time.Time `json:"exit_timestamp"`
	RR             float64   `json:"rr"`
	TradeTaken     bool      `json:"trade_taken"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`

	LotSize    *float64 `json:"lot_size,omitempty"`
	Commission *float64 `json:"commission,omitempty"`
	Swap       *float64 `json:"swap,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	DealID     *string  `json:"deal_id,omitempty"`
	OrderID    *string  `json:"order_id,omitempty"`
}

// Trade is a committed record as read back from the store.
type Trade struct {
	ID         string
	SourceKey  string
	ImportedAt time.Time
	TradeImportRecord
}
