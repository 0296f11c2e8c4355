package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/tradelog-dev/tradelog/internal/accounts"
	"github.com/tradelog-dev/tradelog/internal/importlog"
	"github.com/tradelog-dev/tradelog/internal/mapping"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/trade"
	"github.com/tradelog-dev/tradelog/internal/validate"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("#a6e3a1"))
	badStyle    = cellStyle.Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("#6c7086"))
)

const rowTimeLayout = "2006-01-02 15:04"

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

// renderMapping shows where each canonical field is read from.
func renderMapping(headers []string, cm mapping.ColumnMap) string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	rows := make([][]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		h, mapped := cm[f]
		mapped = mapped && present[h]
		status := "optional"
		switch {
		case mapped:
			status = "ok"
		case f.Required():
			status = "missing"
		}
		col := h
		if !mapped {
			col = "-"
		}
		rows = append(rows, []string{string(f), col, status})
	}

	t := newTable("FIELD", "COLUMN", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				switch rows[row][2] {
				case "ok":
					return okStyle
				case "missing":
					return badStyle
				}
				return mutedStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderOutcomes shows up to limit rows of a validated file. A limit of 0
// shows every row.
func renderOutcomes(outcomes []validate.Outcome, acct model.Account, limit int) string {
	if limit > 0 && len(outcomes) > limit {
		outcomes = outcomes[:limit]
	}

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status, rr := "ok", "-"
		if o.Valid {
			rr = strconv.FormatFloat(trade.RiskReward(o), 'f', 2, 64)
		} else {
			status = "invalid"
		}
		pnl := "-"
		if v, ok := o.Number(model.FieldPnL); ok {
			pnl = accounts.FormatAmount(acct, v)
		}
		instrument, _ := o.String(model.FieldInstrument)
		rows = append(rows, []string{
			strconv.Itoa(o.Line),
			status,
			instrument,
			formatTime(o, model.FieldEntryTimestamp),
			formatTime(o, model.FieldExitTimestamp),
			pnl,
			rr,
			problems(o),
		})
	}

	t := newTable("ROW", "STATUS", "INSTRUMENT", "OPENED", "CLOSED", "P&L", "RR", "PROBLEMS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				if rows[row][1] == "ok" {
					return okStyle
				}
				return badStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderHistory shows import-log entries, newest last.
func renderHistory(entries []importlog.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Local().Format(rowTimeLayout),
			e.File,
			e.Account,
			string(e.Outcome),
			fmt.Sprintf("%d/%d", e.Valid, e.Total),
			strconv.Itoa(e.Committed),
			e.Detail,
		})
	}
	t := newTable("WHEN", "FILE", "ACCOUNT", "OUTCOME", "VALID", "COMMITTED", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 {
				switch importlog.Outcome(rows[row][3]) {
				case importlog.OutcomeImported:
					return okStyle
				case importlog.OutcomeFailed, importlog.OutcomeRejected:
					return badStyle
				}
			}
			return cellStyle
		})
	return t.String()
}

// printValidation writes the valid count and the reason each invalid row
// was rejected.
func printValidation(w io.Writer, s validate.Summary, acct model.Account) {
	fmt.Fprintf(w, "%d of %d rows valid, net P&L %s\n", s.Valid, s.Total, accounts.FormatAmount(acct, netPnL(s)))
	for _, o := range s.Outcomes {
		if !o.Valid {
			fmt.Fprintf(w, "  row %d: %s\n", o.Line, strings.Join(o.Errors, " "))
		}
		for _, warn := range o.Warnings {
			fmt.Fprintf(w, "  row %d: warning: %s\n", o.Line, warn)
		}
	}
}

// netPnL sums the P&L of valid rows without float drift.
func netPnL(s validate.Summary) float64 {
	sum := decimal.Zero
	for _, o := range s.ValidOutcomes() {
		v, _ := o.Number(model.FieldPnL)
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

func problems(o validate.Outcome) string {
	msgs := append([]string(nil), o.Errors...)
	for _, w := range o.Warnings {
		msgs = append(msgs, w.Error())
	}
	return strings.Join(msgs, " ")
}

func formatTime(o validate.Outcome, f model.Field) string {
	t, ok := o.Time(f)
	if !ok {
		return "-"
	}
	return t.UTC().Format(rowTimeLayout)
}

func title(s string) string {
	return titleStyle.Render(s)
}

// durationString keeps progress output short.
func durationString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
