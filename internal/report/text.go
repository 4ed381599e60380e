package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Simplici0/labquote/internal/pricing"
)

const ruleWidth = 40

// printer keeps the first write error so the report body reads top to bottom.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// WriteText renders the console quote report.
func WriteText(w io.Writer, q pricing.Quote) error {
	p := &printer{w: w}
	thick := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	p.printf("%s\n", thick)
	p.printf("FINAL QUOTE: %s\n", strings.Join(q.Tests, " + "))
	p.printf("%s\n", thin)

	anchor := q.Anchor()
	p.printf("ANCHOR: %-10s $%s\n", anchor.Code, money(anchor.FinalPrice))
	for _, item := range q.AddOns() {
		p.printf("ADD-ON: %-10s $%s (List: $%s)\n", item.Code, money(item.FinalPrice), money(item.ListFee))
	}
	for i, s := range q.Surcharges {
		p.printf("SURCHARGE %d:     $%s (%s)\n", i+1, money(s.Amount), s.Name)
	}

	p.printf("%s\n", thin)
	p.printf("TOTAL PATIENT PRICE:    $%s\n", money(q.TotalPrice))
	p.printf("Total Variable Cost:    $%s (Reagents + Lab Labor)\n", money(q.TotalVariableCost))
	p.printf("Contribution Margin:    $%s\n", money(q.ContributionMargin))

	if len(q.Profitability) > 0 {
		width := 10
		for _, o := range q.Profitability {
			width = max(width, len(o.Name))
		}

		p.printf("\n--- NET PROFIT FORECAST ---\n")
		for _, o := range q.Profitability {
			p.printf("%-*s (Fixed $%s): %-6s $%s\n", width, o.Name, o.FixedOverhead.StringFixed(0), status(o), money(o.NetProfit))
		}
	}
	p.printf("%s\n", thick)

	return p.err
}
