package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Role tells whether a line item is the panel anchor or a discounted add-on.
type Role string

const (
	RoleAnchor Role = "ANCHOR"
	RoleAddOn  Role = "ADD_ON"
)

var hundred = decimal.NewFromInt(100)

// Rules holds the numeric parameters of the anchor + add-on rule.
type Rules struct {
	// MarginalOverhead is the per-test labor/handling allowance added to reagent cost.
	MarginalOverhead decimal.Decimal
	// AddOnRate is the share of list price targeted for add-ons.
	AddOnRate decimal.Decimal
	// FloorMultiple is the minimum markup over variable cost for add-ons.
	FloorMultiple decimal.Decimal
}

// DefaultRules returns $1.00 marginal overhead, 50% add-on rate and a 3x cost floor.
func DefaultRules() Rules {
	return Rules{
		MarginalOverhead: decimal.NewFromInt(1),
		AddOnRate:        decimal.RequireFromString("0.50"),
		FloorMultiple:    decimal.NewFromInt(3),
	}
}

// Scenario is a named fixed-overhead allocation per patient.
type Scenario struct {
	Name                string          `json:"name"`
	FixedCostPerPatient decimal.Decimal `json:"fixed_cost_per_patient"`
}

// Surcharge is a flat pass-through amount added to every quote.
type Surcharge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Config parameterizes an Engine.
type Config struct {
	Rules      Rules
	Scenarios  []Scenario
	Surcharges []Surcharge
}

// Engine prices test panels against a fixed reference table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	table      *ReferenceTable
	rules      Rules
	scenarios  []Scenario
	surcharges []Surcharge
}

// NewEngine validates cfg and returns an engine bound to table.
func NewEngine(table *ReferenceTable, cfg Config) (*Engine, error) {
	if table == nil {
		return nil, errors.New("reference table is required")
	}
	if cfg.Rules.MarginalOverhead.IsNegative() {
		return nil, fmt.Errorf("marginal overhead must not be negative: %s", cfg.Rules.MarginalOverhead)
	}
	if cfg.Rules.AddOnRate.IsNegative() {
		return nil, fmt.Errorf("add-on rate must not be negative: %s", cfg.Rules.AddOnRate)
	}
	if cfg.Rules.FloorMultiple.IsNegative() {
		return nil, fmt.Errorf("floor multiple must not be negative: %s", cfg.Rules.FloorMultiple)
	}
	for _, s := range cfg.Scenarios {
		if s.FixedCostPerPatient.IsNegative() {
			return nil, fmt.Errorf("scenario %q: fixed cost must not be negative", s.Name)
		}
	}
	for _, s := range cfg.Surcharges {
		if s.Amount.IsNegative() {
			return nil, fmt.Errorf("surcharge %q: amount must not be negative", s.Name)
		}
	}

	return &Engine{
		table:      table,
		rules:      cfg.Rules,
		scenarios:  append([]Scenario(nil), cfg.Scenarios...),
		surcharges: append([]Surcharge(nil), cfg.Surcharges...),
	}, nil
}

// Table returns the engine's reference table.
func (e *Engine) Table() *ReferenceTable {
	return e.table
}

// Rules returns the engine's pricing rules.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Scenarios returns a copy of the configured overhead scenarios.
func (e *Engine) Scenarios() []Scenario {
	return append([]Scenario(nil), e.scenarios...)
}

// CalculateQuote prices tests. The highest list-priced test is the anchor and
// is charged its full list price; every other test is charged
// max(listFee*AddOnRate, (reagentCost+MarginalOverhead)*FloorMultiple).
// On equal list prices the earlier input wins the anchor.
//
// ok is false when tests is empty; there is nothing to quote in that case.
func (e *Engine) CalculateQuote(tests []string) (quote Quote, ok bool) {
	if len(tests) == 0 {
		return Quote{}, false
	}

	items := make([]LineItem, 0, len(tests))
	for _, raw := range tests {
		code := NormalizeCode(raw)
		items = append(items, LineItem{
			Code:             code,
			ListFee:          e.table.ListPrice(code),
			ReagentCost:      e.table.ReagentCost(code),
			MarginalOverhead: e.rules.MarginalOverhead,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ListFee.GreaterThan(items[j].ListFee)
	})

	quote = Quote{
		Tests:     append([]string(nil), tests...),
		Breakdown: items,
	}

	for i := range items {
		item := &items[i]
		if i == 0 {
			item.Role = RoleAnchor
			item.FinalPrice = item.ListFee
		} else {
			item.Role = RoleAddOn
			item.FinalPrice = e.addOnPrice(*item)
		}

		quote.TotalPrice = quote.TotalPrice.Add(item.FinalPrice)
		quote.TotalVariableCost = quote.TotalVariableCost.Add(item.VariableCost())
		quote.TotalReagentCost = quote.TotalReagentCost.Add(item.ReagentCost)
		quote.TotalOverhead = quote.TotalOverhead.Add(item.MarginalOverhead)
	}

	if len(e.surcharges) > 0 {
		quote.Surcharges = append([]Surcharge(nil), e.surcharges...)
		for _, s := range e.surcharges {
			quote.TotalSurcharges = quote.TotalSurcharges.Add(s.Amount)
		}
		quote.TotalPrice = quote.TotalPrice.Add(quote.TotalSurcharges)
	}

	quote.ContributionMargin = quote.TotalPrice.
		Sub(quote.TotalVariableCost).
		Sub(quote.TotalSurcharges)

	quote.Profitability = make([]ScenarioOutcome, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		net := quote.ContributionMargin.Sub(s.FixedCostPerPatient)
		quote.Profitability = append(quote.Profitability, ScenarioOutcome{
			Name:          s.Name,
			FixedOverhead: s.FixedCostPerPatient,
			NetProfit:     net,
			// Break-even is a loss.
			IsProfitable: net.IsPositive(),
		})
	}

	return quote, true
}

func (e *Engine) addOnPrice(item LineItem) decimal.Decimal {
	target := item.ListFee.Mul(e.rules.AddOnRate)
	floor := item.VariableCost().Mul(e.rules.FloorMultiple)
	return decimal.Max(target, floor)
}
