package pricing

import "github.com/shopspring/decimal"

// LineItem is one priced test of a quote.
type LineItem struct {
	Code             TestCode        `json:"code"`
	ListFee          decimal.Decimal `json:"list_fee"`
	ReagentCost      decimal.Decimal `json:"reagent_cost"`
	MarginalOverhead decimal.Decimal `json:"marginal_overhead"`
	Role             Role            `json:"role"`
	FinalPrice       decimal.Decimal `json:"final_price"`
}

// VariableCost returns reagent cost plus marginal overhead.
func (l LineItem) VariableCost() decimal.Decimal {
	return l.ReagentCost.Add(l.MarginalOverhead)
}

// ScenarioOutcome is the projected result of a quote under one overhead scenario.
type ScenarioOutcome struct {
	Name          string          `json:"name"`
	FixedOverhead decimal.Decimal `json:"fixed_overhead"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	IsProfitable  bool            `json:"is_profitable"`
}

// Quote is the priced breakdown and profitability forecast for one panel.
type Quote struct {
	Tests              []string          `json:"tests_selected"`
	Breakdown          []LineItem        `json:"breakdown"`
	Surcharges         []Surcharge       `json:"surcharges,omitempty"`
	TotalPrice         decimal.Decimal   `json:"total_price"`
	TotalVariableCost  decimal.Decimal   `json:"total_variable_cost"`
	TotalSurcharges    decimal.Decimal   `json:"total_surcharges"`
	ContributionMargin decimal.Decimal   `json:"contribution_margin"`
	TotalReagentCost   decimal.Decimal   `json:"total_reagent_cost"`
	TotalOverhead      decimal.Decimal   `json:"total_overhead"`
	Profitability      []ScenarioOutcome `json:"profitability"`
}

// Anchor returns the full-price line item.
func (q Quote) Anchor() LineItem {
	if len(q.Breakdown) == 0 {
		return LineItem{}
	}
	return q.Breakdown[0]
}

// AddOns returns the discounted line items in descending list-price order.
func (q Quote) AddOns() []LineItem {
	if len(q.Breakdown) < 2 {
		return nil
	}
	return q.Breakdown[1:]
}

// Scenario looks up the outcome for the named overhead scenario.
func (q Quote) Scenario(name string) (ScenarioOutcome, bool) {
	for _, o := range q.Profitability {
		if o.Name == name {
			return o, true
		}
	}
	return ScenarioOutcome{}, false
}

// GrossMarginPercent returns contribution margin as a percentage of total
// price. ok is false when the total price is zero.
func (q Quote) GrossMarginPercent() (pct decimal.Decimal, ok bool) {
	if q.TotalPrice.IsZero() {
		return decimal.Zero, false
	}
	return q.ContributionMargin.Div(q.TotalPrice).Mul(hundred), true
}
