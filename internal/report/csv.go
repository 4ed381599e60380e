package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Simplici0/labquote/internal/pricing"
)

// WriteCSV writes the breakdown, totals and profitability as three blocks
// separated by blank lines.
func WriteCSV(w io.Writer, q pricing.Quote) error {
	writer := csv.NewWriter(w)

	blocks := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{"breakdown", breakdownHeaders, breakdownRows(q)},
		{"totals", []string{"Total", "Amount"}, totalsRows(q)},
		{"profitability", profitabilityHeaders, profitabilityRows(q)},
	}

	for i, block := range blocks {
		if i > 0 {
			if err := writer.Write(nil); err != nil {
				return fmt.Errorf("write csv separator: %w", err)
			}
		}
		if err := writer.Write(block.headers); err != nil {
			return fmt.Errorf("write %s csv headers: %w", block.name, err)
		}
		if err := writer.WriteAll(block.rows); err != nil {
			return fmt.Errorf("write %s csv rows: %w", block.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
