package trade

import (
	"encoding/json"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelog-dev/tradelog/internal/importer"
	"github.com/tradelog-dev/tradelog/internal/mapping"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/validate"
)

func outcome(nums map[model.Field]float64) validate.Outcome {
	return validate.Outcome{Numbers: nums}
}

func TestRiskReward(t *testing.T) {
	tests := []struct {
		name string
		nums map[model.Field]float64
		want float64
	}{
		{
			name: "winning long",
			nums: map[model.Field]float64{model.FieldPnL: 40, model.FieldEntry: 1.10, model.FieldStopLoss: 1.09, model.FieldExit: 1.13},
			want: 3,
		},
		{
			name: "losing short",
			nums: map[model.Field]float64{model.FieldPnL: -15, model.FieldEntry: 100, model.FieldStopLoss: 102, model.FieldExit: 102},
			want: -1,
		},
		{
			name: "pnl sign overrides price direction",
			nums: map[model.Field]float64{model.FieldPnL: -5, model.FieldEntry: 10, model.FieldStopLoss: 8, model.FieldExit: 14},
			want: -2,
		},
		{
			name: "winner exiting at entry",
			nums: map[model.Field]float64{model.FieldPnL: 1, model.FieldEntry: 10, model.FieldStopLoss: 9, model.FieldExit: 10},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RiskReward(outcome(tt.nums)), 1e-9)
		})
	}
}

// Without a usable stop the multiple is the sign of pnl, exactly.
func TestRiskReward_PlaceholderFallback(t *testing.T) {
	tests := []struct {
		name string
		nums map[model.Field]float64
		want float64
	}{
		{"no stop, win", map[model.Field]float64{model.FieldPnL: 250, model.FieldEntry: 1, model.FieldExit: 2}, 1},
		{"no stop, loss", map[model.Field]float64{model.FieldPnL: -250, model.FieldEntry: 1, model.FieldExit: 2}, -1},
		{"no stop, flat", map[model.Field]float64{model.FieldPnL: 0, model.FieldEntry: 1, model.FieldExit: 2}, 0},
		{"zero risk, win", map[model.Field]float64{model.FieldPnL: 3, model.FieldEntry: 5, model.FieldStopLoss: 5, model.FieldExit: 9}, 1},
		{"zero risk, loss", map[model.Field]float64{model.FieldPnL: -3, model.FieldEntry: 5, model.FieldStopLoss: 5, model.FieldExit: 1}, -1},
		{"flat with stop", map[model.Field]float64{model.FieldPnL: 0, model.FieldEntry: 5, model.FieldStopLoss: 4, model.FieldExit: 7}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskReward(outcome(tt.nums)))
		})
	}
}

func TestRiskReward_SignMatchesPnL(t *testing.T) {
	prices := []float64{0.5, 1, 1.1, 2, 100, 17010.5}
	for _, pnl := range []float64{-1000, -0.01, 0.01, 42} {
		for _, entry := range prices {
			for _, stop := range prices {
				for _, exit := range prices {
					o := outcome(map[model.Field]float64{
						model.FieldPnL: pnl, model.FieldEntry: entry, model.FieldStopLoss: stop, model.FieldExit: exit,
					})
					rr := RiskReward(o)
					if rr == 0 {
						// Exit at entry carries no reward in either direction.
						assert.Equal(t, entry, exit)
						continue
					}
					assert.Equal(t, math.Signbit(pnl), math.Signbit(rr), "pnl=%v entry=%v stop=%v exit=%v", pnl, entry, stop, exit)
				}
			}
		}
	}
}

func TestBuildRecords_MT5Template(t *testing.T) {
	f, err := os.Open("../../testdata/mt5_template.csv")
	require.NoError(t, err)
	defer f.Close()

	tbl, err := importer.ReadTable(f, 0)
	require.NoError(t, err)
	cm := mapping.NewMapper(mapping.DefaultTable()).Guess(tbl.Headers)
	mt5 := importer.MT5()

	recs := BuildRecords(validate.Rows(tbl.Rows, cm), Defaults{AccountID: "acct-1", Notes: mt5.Notes, Tags: mt5.Tags})
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "acct-1", first.AccountID)
	assert.Equal(t, "EURUSD", first.Instrument)
	assert.InDelta(t, 40.00, first.PnL, 1e-9)
	assert.True(t, first.TradeTaken)
	assert.Equal(t, "Imported via MT5 CSV.", first.Notes)
	assert.Equal(t, []string{"CSV Import", "MT5"}, first.Tags)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), first.EntryTimestamp)
	assert.Equal(t, time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC), first.ExitTimestamp)
	// |1.10523-1.10123| / |1.10123-1.10000|
	assert.InDelta(t, 0.004/0.00123, first.RR, 1e-6)
	require.NotNil(t, first.DealID)
	assert.Equal(t, "123456", *first.DealID)
	require.NotNil(t, first.OrderID)
	assert.Equal(t, "789012", *first.OrderID)
	require.NotNil(t, first.Commission)
	assert.InDelta(t, -1.50, *first.Commission, 1e-9)

	second := recs[1]
	assert.Equal(t, "acct-1", second.AccountID)
	assert.Equal(t, "GBPUSD", second.Instrument)
	assert.InDelta(t, -15.00, second.PnL, 1e-9)
	assert.Less(t, second.RR, 0.0)
}

func TestBuildRecord_OmitsAbsentOptionals(t *testing.T) {
	o := validate.Outcome{
		Numbers: map[model.Field]float64{model.FieldPnL: 10, model.FieldEntry: 1, model.FieldExit: 2},
		Times: map[model.Field]time.Time{
			model.FieldEntryTimestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			model.FieldExitTimestamp:  time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		Strings: map[model.Field]string{model.FieldInstrument: "BTCUSD"},
		Valid:   true,
	}
	rec := BuildRecord(o, Defaults{AccountID: "a", Tags: []string{"x"}})

	assert.Nil(t, rec.LotSize)
	assert.Nil(t, rec.StopLoss)
	assert.Nil(t, rec.DealID)
	assert.Equal(t, 1.0, rec.RR)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	for _, key := range []string{"lot_size", "commission", "swap", "stop_loss", "take_profit", "deal_id", "order_id"} {
		assert.NotContains(t, string(data), `"`+key+`"`)
	}
}

func TestBuildRecord_TagsAreCopied(t *testing.T) {
	tags := []string{"CSV Import"}
	rec := BuildRecord(validate.Outcome{}, Defaults{Tags: tags})
	rec.Tags[0] = "changed"
	assert.Equal(t, "CSV Import", tags[0])
}
