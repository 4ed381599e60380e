// Package catalog holds the static reference data the pricing engine is built
// from: per-test list prices and reagent costs, pricing profiles (overhead
// scenarios, surcharges, rule overrides) and panel presets.
package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/pricing"
)

// Test is one orderable lab test.
type Test struct {
	Code        pricing.TestCode `json:"code"`
	ListPrice   decimal.Decimal  `json:"list_price"`
	ReagentCost decimal.Decimal  `json:"reagent_cost"`
}

// Profile is a named engine configuration.
type Profile struct {
	Name       string              `json:"name"`
	Rules      pricing.Rules       `json:"-"`
	Scenarios  []pricing.Scenario  `json:"scenarios"`
	Surcharges []pricing.Surcharge `json:"surcharges"`
}

// Preset is a named, commonly ordered test panel.
type Preset struct {
	Name  string             `json:"name"`
	Tests []pricing.TestCode `json:"tests"`
}

// Catalog is the full reference document. Tests are ordered by code and
// profiles by name.
type Catalog struct {
	Tests    []Test
	Profiles []Profile
	Presets  []Preset
}

// Validate checks the document for values the engine must never see.
func (c *Catalog) Validate() error {
	if len(c.Profiles) == 0 {
		return apperrors.NewValidationError("catalog defines no pricing profiles")
	}

	known := make(map[pricing.TestCode]bool, len(c.Tests))
	for _, t := range c.Tests {
		if t.Code == "" {
			return apperrors.NewValidationError("test code must not be empty")
		}
		if known[t.Code] {
			return apperrors.NewValidationError("test %s is defined twice", t.Code)
		}
		known[t.Code] = true
		if t.ListPrice.IsNegative() {
			return apperrors.NewValidationError("test %s: list price must not be negative", t.Code)
		}
		if t.ReagentCost.IsNegative() {
			return apperrors.NewValidationError("test %s: reagent cost must not be negative", t.Code)
		}
	}

	profiles := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if err := validateProfile(p); err != nil {
			return err
		}
		if profiles[p.Name] {
			return apperrors.NewValidationError("profile %q is defined twice", p.Name)
		}
		profiles[p.Name] = true
	}

	presets := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return apperrors.NewValidationError("preset name must not be empty")
		}
		if presets[p.Name] {
			return apperrors.NewValidationError("preset %q is defined twice", p.Name)
		}
		presets[p.Name] = true
		if len(p.Tests) == 0 {
			return apperrors.NewValidationError("preset %q has no tests", p.Name)
		}
		for _, code := range p.Tests {
			if !known[code] {
				return apperrors.NewValidationError("preset %q references unknown test %s", p.Name, code)
			}
		}
	}

	return nil
}

func validateProfile(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.NewValidationError("profile name must not be empty")
	}
	if p.Rules.MarginalOverhead.IsNegative() || p.Rules.AddOnRate.IsNegative() || p.Rules.FloorMultiple.IsNegative() {
		return apperrors.NewValidationError("profile %q: pricing rules must not be negative", p.Name)
	}

	seen := make(map[string]bool, len(p.Scenarios))
	for _, s := range p.Scenarios {
		if strings.TrimSpace(s.Name) == "" {
			return apperrors.NewValidationError("profile %q: scenario name must not be empty", p.Name)
		}
		if seen[s.Name] {
			return apperrors.NewValidationError("profile %q: scenario %q is defined twice", p.Name, s.Name)
		}
		seen[s.Name] = true
		if s.FixedCostPerPatient.IsNegative() {
			return apperrors.NewValidationError("profile %q: scenario %q has a negative fixed cost", p.Name, s.Name)
		}
	}

	for _, s := range p.Surcharges {
		if strings.TrimSpace(s.Name) == "" {
			return apperrors.NewValidationError("profile %q: surcharge name must not be empty", p.Name)
		}
		if s.Amount.IsNegative() {
			return apperrors.NewValidationError("profile %q: surcharge %q has a negative amount", p.Name, s.Name)
		}
	}
	return nil
}

// Table builds the engine's reference table.
func (c *Catalog) Table() *pricing.ReferenceTable {
	rows := make([]pricing.TestPrice, 0, len(c.Tests))
	for _, t := range c.Tests {
		rows = append(rows, pricing.TestPrice{Code: t.Code, ListPrice: t.ListPrice, ReagentCost: t.ReagentCost})
	}
	return pricing.NewReferenceTable(rows)
}

// Profile looks up a profile by name.
func (c *Catalog) Profile(name string) (Profile, error) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, apperrors.NewNotFoundError("pricing profile %q not found", name)
}

// ProfileNames returns the profile names in order.
func (c *Catalog) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Preset looks up a preset by name, case-insensitively.
func (c *Catalog) Preset(name string) (Preset, error) {
	for _, p := range c.Presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, apperrors.NewNotFoundError("preset %q not found", name)
}

// Engine builds the engine for one profile.
func (c *Catalog) Engine(profile string) (*pricing.Engine, error) {
	p, err := c.Profile(profile)
	if err != nil {
		return nil, err
	}
	return newEngine(c.Table(), p)
}

// Engines builds one engine per profile, all sharing a single reference table.
func (c *Catalog) Engines() (map[string]*pricing.Engine, error) {
	table := c.Table()
	engines := make(map[string]*pricing.Engine, len(c.Profiles))
	for _, p := range c.Profiles {
		engine, err := newEngine(table, p)
		if err != nil {
			return nil, err
		}
		engines[p.Name] = engine
	}
	return engines, nil
}

func newEngine(table *pricing.ReferenceTable, p Profile) (*pricing.Engine, error) {
	engine, err := pricing.NewEngine(table, pricing.Config{
		Rules:      p.Rules,
		Scenarios:  p.Scenarios,
		Surcharges: p.Surcharges,
	})
	if err != nil {
		return nil, apperrors.NewValidationError("profile %q: %v", p.Name, err)
	}
	return engine, nil
}

func (c *Catalog) sort() {
	sort.Slice(c.Tests, func(i, j int) bool { return c.Tests[i].Code < c.Tests[j].Code })
	sort.Slice(c.Profiles, func(i, j int) bool { return c.Profiles[i].Name < c.Profiles[j].Name })
}
