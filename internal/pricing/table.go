package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TestCode is the canonical identifier of a laboratory test, e.g. "VIT_B12".
type TestCode string

// NormalizeCode turns a raw test name such as "vit b12" into its canonical code.
// Unknown names are not rejected.
func NormalizeCode(raw string) TestCode {
	return TestCode(strings.ReplaceAll(strings.ToUpper(raw), " ", "_"))
}

// TestPrice is one row of the reference table.
type TestPrice struct {
	Code        TestCode
	ListPrice   decimal.Decimal
	ReagentCost decimal.Decimal
}

// ReferenceTable holds reagent costs and list prices per test code.
// It is never mutated after construction.
type ReferenceTable struct {
	listPrice   map[TestCode]decimal.Decimal
	reagentCost map[TestCode]decimal.Decimal
}

// NewReferenceTable builds a table from rows. Codes are normalized; a later row
// for the same code replaces an earlier one.
func NewReferenceTable(rows []TestPrice) *ReferenceTable {
	t := &ReferenceTable{
		listPrice:   make(map[TestCode]decimal.Decimal, len(rows)),
		reagentCost: make(map[TestCode]decimal.Decimal, len(rows)),
	}
	for _, row := range rows {
		code := NormalizeCode(string(row.Code))
		t.listPrice[code] = row.ListPrice
		t.reagentCost[code] = row.ReagentCost
	}
	return t
}

// ListPrice returns the list price for code, or zero if the code is unknown.
func (t *ReferenceTable) ListPrice(code TestCode) decimal.Decimal {
	return t.listPrice[code]
}

// ReagentCost returns the reagent cost for code, or zero if the code is unknown.
func (t *ReferenceTable) ReagentCost(code TestCode) decimal.Decimal {
	return t.reagentCost[code]
}

// Has reports whether code has a list price entry.
func (t *ReferenceTable) Has(code TestCode) bool {
	_, ok := t.listPrice[code]
	return ok
}

// Codes returns all known codes in ascending order.
func (t *ReferenceTable) Codes() []TestCode {
	codes := make([]TestCode, 0, len(t.listPrice))
	for code := range t.listPrice {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Rows returns the table contents ordered by code.
func (t *ReferenceTable) Rows() []TestPrice {
	codes := t.Codes()
	rows := make([]TestPrice, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, TestPrice{
			Code:        code,
			ListPrice:   t.listPrice[code],
			ReagentCost: t.reagentCost[code],
		})
	}
	return rows
}

// Len returns the number of known codes.
func (t *ReferenceTable) Len() int {
	return len(t.listPrice)
}
