// Package store reads the reference tables back out of SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/pricing"
)

// LoadCatalog reads tests, profiles and presets into a validated catalog.
func LoadCatalog(ctx context.Context, db *sql.DB) (*catalog.Catalog, error) {
	tests, err := listTests(ctx, db)
	if err != nil {
		return nil, apperrors.NewInternalError("load lab tests", err)
	}

	profiles, err := listProfiles(ctx, db)
	if err != nil {
		return nil, apperrors.NewInternalError("load pricing profiles", err)
	}

	presets, err := listPresets(ctx, db)
	if err != nil {
		return nil, apperrors.NewInternalError("load panel presets", err)
	}

	c, err := catalog.New(tests, profiles, presets)
	if err != nil {
		return nil, fmt.Errorf("stored catalog: %w", err)
	}
	return c, nil
}

func listTests(ctx context.Context, db *sql.DB) ([]catalog.Test, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT code, list_price, reagent_cost
		FROM lab_tests
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("query lab tests: %w", err)
	}
	defer rows.Close()

	tests := make([]catalog.Test, 0)
	for rows.Next() {
		var t catalog.Test
		if err := rows.Scan(&t.Code, &t.ListPrice, &t.ReagentCost); err != nil {
			return nil, fmt.Errorf("scan lab test: %w", err)
		}
		tests = append(tests, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lab tests: %w", err)
	}

	return tests, nil
}

func listProfiles(ctx context.Context, db *sql.DB) ([]catalog.Profile, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, marginal_overhead, add_on_rate, floor_multiple
		FROM pricing_profiles
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query pricing profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]catalog.Profile, 0)
	for rows.Next() {
		var p catalog.Profile
		if err := rows.Scan(&p.Name, &p.Rules.MarginalOverhead, &p.Rules.AddOnRate, &p.Rules.FloorMultiple); err != nil {
			return nil, fmt.Errorf("scan pricing profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing profiles: %w", err)
	}
	rows.Close()

	for i := range profiles {
		if profiles[i].Scenarios, err = listScenarios(ctx, db, profiles[i].Name); err != nil {
			return nil, err
		}
		if profiles[i].Surcharges, err = listSurcharges(ctx, db, profiles[i].Name); err != nil {
			return nil, err
		}
	}

	return profiles, nil
}

func listScenarios(ctx context.Context, db *sql.DB, profile string) ([]pricing.Scenario, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, fixed_cost_per_patient
		FROM overhead_scenarios
		WHERE profile = ?
		ORDER BY position, id
	`, profile)
	if err != nil {
		return nil, fmt.Errorf("query scenarios for %q: %w", profile, err)
	}
	defer rows.Close()

	var scenarios []pricing.Scenario
	for rows.Next() {
		var s pricing.Scenario
		if err := rows.Scan(&s.Name, &s.FixedCostPerPatient); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios for %q: %w", profile, err)
	}

	return scenarios, nil
}

func listSurcharges(ctx context.Context, db *sql.DB, profile string) ([]pricing.Surcharge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, amount
		FROM surcharges
		WHERE profile = ?
		ORDER BY position, id
	`, profile)
	if err != nil {
		return nil, fmt.Errorf("query surcharges for %q: %w", profile, err)
	}
	defer rows.Close()

	var surcharges []pricing.Surcharge
	for rows.Next() {
		var s pricing.Surcharge
		if err := rows.Scan(&s.Name, &s.Amount); err != nil {
			return nil, fmt.Errorf("scan surcharge: %w", err)
		}
		surcharges = append(surcharges, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surcharges for %q: %w", profile, err)
	}

	return surcharges, nil
}

func listPresets(ctx context.Context, db *sql.DB) ([]catalog.Preset, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, tests
		FROM panel_presets
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query panel presets: %w", err)
	}
	defer rows.Close()

	presets := make([]catalog.Preset, 0)
	for rows.Next() {
		var (
			p     catalog.Preset
			tests string
		)
		if err := rows.Scan(&p.Name, &tests); err != nil {
			return nil, fmt.Errorf("scan panel preset: %w", err)
		}
		for _, code := range strings.Split(tests, ",") {
			if code = strings.TrimSpace(code); code != "" {
				p.Tests = append(p.Tests, pricing.TestCode(code))
			}
		}
		presets = append(presets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate panel presets: %w", err)
	}

	return presets, nil
}
