package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/labquote/internal/pricing"
)

const (
	breakdownSheet     = "Breakdown"
	profitabilitySheet = "Profitability"
)

// WriteXLSX writes a workbook with a Breakdown sheet (line items, surcharges
// and totals) and a Profitability sheet. Money cells are numeric.
func WriteXLSX(w io.Writer, q pricing.Quote) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", breakdownSheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(profitabilitySheet); err != nil {
		return fmt.Errorf("create profitability sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	sw := sheetWriter{f: f, headerStyle: headerStyle, moneyStyle: moneyStyle}

	// Breakdown
	sw.header(breakdownSheet, 1, breakdownHeaders)
	row := 2
	for _, item := range q.Breakdown {
		sw.row(breakdownSheet, row, string(item.Role), string(item.Code),
			item.ListFee, item.ReagentCost, item.MarginalOverhead, item.FinalPrice)
		row++
	}
	for _, s := range q.Surcharges {
		sw.row(breakdownSheet, row, "SURCHARGE", s.Name, nil, nil, nil, s.Amount)
		row++
	}
	row++
	sw.row(breakdownSheet, row, "Total Patient Price", nil, nil, nil, nil, q.TotalPrice)
	sw.row(breakdownSheet, row+1, "Total Variable Cost", nil, nil, nil, nil, q.TotalVariableCost)
	sw.row(breakdownSheet, row+2, "Total Surcharges", nil, nil, nil, nil, q.TotalSurcharges)
	sw.row(breakdownSheet, row+3, "Contribution Margin", nil, nil, nil, nil, q.ContributionMargin)
	sw.widths(breakdownSheet, len(breakdownHeaders))

	// Profitability
	sw.header(profitabilitySheet, 1, profitabilityHeaders)
	for i, o := range q.Profitability {
		sw.row(profitabilitySheet, i+2, o.Name, o.FixedOverhead, o.NetProfit, status(o))
	}
	sw.widths(profitabilitySheet, len(profitabilityHeaders))

	if sw.err != nil {
		return sw.err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first cell error.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	moneyStyle  int
	err         error
}

func (s *sheetWriter) header(sheet string, row int, headers []string) {
	for i, h := range headers {
		cell := s.cell(i+1, row)
		s.set(sheet, cell, h)
		if s.err == nil {
			s.err = s.f.SetCellStyle(sheet, cell, cell, s.headerStyle)
		}
	}
}

// row writes values left to right. Decimals become numeric cells and nil
// leaves the cell empty.
func (s *sheetWriter) row(sheet string, row int, values ...any) {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell := s.cell(i+1, row)
		if d, ok := v.(decimal.Decimal); ok {
			s.set(sheet, cell, d.InexactFloat64())
			if s.err == nil {
				s.err = s.f.SetCellStyle(sheet, cell, cell, s.moneyStyle)
			}
			continue
		}
		s.set(sheet, cell, v)
	}
}

func (s *sheetWriter) widths(sheet string, cols int) {
	if s.err != nil {
		return
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetColWidth(sheet, "A", last, 20)
}

func (s *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && s.err == nil {
		s.err = err
	}
	return name
}

func (s *sheetWriter) set(sheet, cell string, value any) {
	if s.err != nil {
		return
	}
	if err := s.f.SetCellValue(sheet, cell, value); err != nil {
		s.err = fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
}
