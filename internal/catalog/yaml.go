package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/pricing"
)

//go:embed default.yaml
var defaultDocument []byte

// amount decodes a YAML scalar straight into a decimal so that 0.71 stays 0.71.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

type document struct {
	Tests    map[string]testDoc    `yaml:"tests"`
	Profiles map[string]profileDoc `yaml:"profiles"`
	Presets  []presetDoc           `yaml:"presets"`
}

type testDoc struct {
	ListPrice   amount `yaml:"list_price"`
	ReagentCost amount `yaml:"reagent_cost"`
}

type profileDoc struct {
	MarginalOverhead *amount       `yaml:"marginal_overhead"`
	AddOnRate        *amount       `yaml:"add_on_rate"`
	FloorMultiple    *amount       `yaml:"floor_multiple"`
	Scenarios        []scenarioDoc `yaml:"scenarios"`
	Surcharges       []chargeDoc   `yaml:"surcharges"`
}

type scenarioDoc struct {
	Name                string `yaml:"name"`
	FixedCostPerPatient amount `yaml:"fixed_cost_per_patient"`
}

type chargeDoc struct {
	Name   string `yaml:"name"`
	Amount amount `yaml:"amount"`
}

type presetDoc struct {
	Name  string   `yaml:"name"`
	Tests []string `yaml:"tests"`
}

// Default returns the embedded reference catalog.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// DefaultDocument returns the raw embedded YAML.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// LoadFile reads a catalog document from path. An empty path yields the
// embedded default.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewValidationError("decode catalog: %v", err)
	}

	tests := make([]Test, 0, len(doc.Tests))
	for code, t := range doc.Tests {
		tests = append(tests, Test{
			Code:        pricing.TestCode(code),
			ListPrice:   t.ListPrice.Decimal,
			ReagentCost: t.ReagentCost.Decimal,
		})
	}

	profiles := make([]Profile, 0, len(doc.Profiles))
	for name, p := range doc.Profiles {
		profiles = append(profiles, p.toProfile(name))
	}

	presets := make([]Preset, 0, len(doc.Presets))
	for _, p := range doc.Presets {
		preset := Preset{Name: p.Name}
		for _, raw := range p.Tests {
			preset.Tests = append(preset.Tests, pricing.TestCode(raw))
		}
		presets = append(presets, preset)
	}

	return New(tests, profiles, presets)
}

func (p profileDoc) toProfile(name string) Profile {
	rules := pricing.DefaultRules()
	if p.MarginalOverhead != nil {
		rules.MarginalOverhead = p.MarginalOverhead.Decimal
	}
	if p.AddOnRate != nil {
		rules.AddOnRate = p.AddOnRate.Decimal
	}
	if p.FloorMultiple != nil {
		rules.FloorMultiple = p.FloorMultiple.Decimal
	}

	profile := Profile{Name: name, Rules: rules}
	for _, s := range p.Scenarios {
		profile.Scenarios = append(profile.Scenarios, pricing.Scenario{
			Name:                s.Name,
			FixedCostPerPatient: s.FixedCostPerPatient.Decimal,
		})
	}
	for _, s := range p.Surcharges {
		profile.Surcharges = append(profile.Surcharges, pricing.Surcharge{
			Name:   s.Name,
			Amount: s.Amount.Decimal,
		})
	}
	return profile
}

// New assembles a catalog from parts: codes are normalized, tests and
// profiles sorted, and the result validated.
func New(tests []Test, profiles []Profile, presets []Preset) (*Catalog, error) {
	c := &Catalog{
		Tests:    make([]Test, 0, len(tests)),
		Profiles: append([]Profile(nil), profiles...),
		Presets:  make([]Preset, 0, len(presets)),
	}
	for _, t := range tests {
		t.Code = pricing.NormalizeCode(string(t.Code))
		c.Tests = append(c.Tests, t)
	}
	for _, p := range presets {
		normalized := Preset{Name: p.Name, Tests: make([]pricing.TestCode, 0, len(p.Tests))}
		for _, code := range p.Tests {
			normalized.Tests = append(normalized.Tests, pricing.NormalizeCode(string(code)))
		}
		c.Presets = append(c.Presets, normalized)
	}
	c.sort()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
