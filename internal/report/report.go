// Package report renders priced quotes as a console report, CSV or an Excel
// workbook.
package report

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/pricing"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "text", "csv" or "xlsx" in any case. An empty string
// selects text.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", apperrors.NewValidationError("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Write renders q to w in format f.
func Write(w io.Writer, f Format, q pricing.Quote) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, q)
	case FormatXLSX:
		return WriteXLSX(w, q)
	case FormatText, "":
		return WriteText(w, q)
	default:
		return apperrors.NewValidationError("unsupported export format %q", string(f))
	}
}

var (
	breakdownHeaders     = []string{"Role", "Code", "List Fee", "Reagent Cost", "Marginal Overhead", "Final Price"}
	profitabilityHeaders = []string{"Scenario", "Fixed Overhead", "Net Profit", "Status"}
)

// breakdownRows lists the line items followed by one row per surcharge.
func breakdownRows(q pricing.Quote) [][]string {
	rows := make([][]string, 0, len(q.Breakdown)+len(q.Surcharges))
	for _, item := range q.Breakdown {
		rows = append(rows, []string{
			string(item.Role),
			string(item.Code),
			money(item.ListFee),
			money(item.ReagentCost),
			money(item.MarginalOverhead),
			money(item.FinalPrice),
		})
	}
	for _, s := range q.Surcharges {
		rows = append(rows, []string{"SURCHARGE", s.Name, "", "", "", money(s.Amount)})
	}
	return rows
}

func totalsRows(q pricing.Quote) [][]string {
	return [][]string{
		{"Total Patient Price", money(q.TotalPrice)},
		{"Total Variable Cost", money(q.TotalVariableCost)},
		{"Total Surcharges", money(q.TotalSurcharges)},
		{"Contribution Margin", money(q.ContributionMargin)},
	}
}

func profitabilityRows(q pricing.Quote) [][]string {
	rows := make([][]string, 0, len(q.Profitability))
	for _, o := range q.Profitability {
		rows = append(rows, []string{o.Name, money(o.FixedOverhead), money(o.NetProfit), status(o)})
	}
	return rows
}

func status(o pricing.ScenarioOutcome) string {
	if o.IsProfitable {
		return "PROFIT"
	}
	return "LOSS"
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
