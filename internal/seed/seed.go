// Package seed syncs a catalog document into the reference tables.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/labquote/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
	Deletes int
}

// Writes returns the total number of rows changed.
func (s Stats) Writes() int {
	return s.Inserts + s.Updates + s.Deletes
}

// Run makes the reference tables match c in one transaction. Running it
// again with the same catalog changes nothing.
func Run(ctx context.Context, db *sql.DB, c *catalog.Catalog) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	steps := []func(context.Context, *sql.Tx, *catalog.Catalog, *Stats) error{
		syncTests,
		syncProfiles,
		syncPresets,
	}
	for _, step := range steps {
		if err := step(ctx, tx, c, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func syncTests(ctx context.Context, tx *sql.Tx, c *catalog.Catalog, stats *Stats) error {
	codes := make([]string, 0, len(c.Tests))
	for _, t := range c.Tests {
		codes = append(codes, string(t.Code))

		var listPrice, reagentCost decimal.Decimal
		err := tx.QueryRowContext(ctx, `SELECT list_price, reagent_cost FROM lab_tests WHERE code = ?`, t.Code).
			Scan(&listPrice, &reagentCost)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lab_tests (code, list_price, reagent_cost)
				VALUES (?, ?, ?)
			`, t.Code, t.ListPrice, t.ReagentCost); err != nil {
				return fmt.Errorf("insert lab test %s: %w", t.Code, err)
			}
			stats.Inserts++
		case err != nil:
			return fmt.Errorf("query lab test %s: %w", t.Code, err)
		case !listPrice.Equal(t.ListPrice) || !reagentCost.Equal(t.ReagentCost):
			if _, err := tx.ExecContext(ctx, `
				UPDATE lab_tests
				SET list_price = ?, reagent_cost = ?, updated_at = CURRENT_TIMESTAMP
				WHERE code = ?
			`, t.ListPrice, t.ReagentCost, t.Code); err != nil {
				return fmt.Errorf("update lab test %s: %w", t.Code, err)
			}
			stats.Updates++
		}
	}

	return deleteMissing(ctx, tx, stats, "lab_tests", "code", codes, "")
}

func syncProfiles(ctx context.Context, tx *sql.Tx, c *catalog.Catalog, stats *Stats) error {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)

		var overhead, rate, multiple decimal.Decimal
		err := tx.QueryRowContext(ctx, `
			SELECT marginal_overhead, add_on_rate, floor_multiple
			FROM pricing_profiles
			WHERE name = ?
		`, p.Name).Scan(&overhead, &rate, &multiple)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO pricing_profiles (name, marginal_overhead, add_on_rate, floor_multiple)
				VALUES (?, ?, ?, ?)
			`, p.Name, p.Rules.MarginalOverhead, p.Rules.AddOnRate, p.Rules.FloorMultiple); err != nil {
				return fmt.Errorf("insert profile %q: %w", p.Name, err)
			}
			stats.Inserts++
		case err != nil:
			return fmt.Errorf("query profile %q: %w", p.Name, err)
		case !overhead.Equal(p.Rules.MarginalOverhead) || !rate.Equal(p.Rules.AddOnRate) || !multiple.Equal(p.Rules.FloorMultiple):
			if _, err := tx.ExecContext(ctx, `
				UPDATE pricing_profiles
				SET marginal_overhead = ?, add_on_rate = ?, floor_multiple = ?, updated_at = CURRENT_TIMESTAMP
				WHERE name = ?
			`, p.Rules.MarginalOverhead, p.Rules.AddOnRate, p.Rules.FloorMultiple, p.Name); err != nil {
				return fmt.Errorf("update profile %q: %w", p.Name, err)
			}
			stats.Updates++
		}

		if err := syncScenarios(ctx, tx, p, stats); err != nil {
			return err
		}
		if err := syncSurcharges(ctx, tx, p, stats); err != nil {
			return err
		}
	}

	return deleteMissing(ctx, tx, stats, "pricing_profiles", "name", names, "")
}

func syncScenarios(ctx context.Context, tx *sql.Tx, p catalog.Profile, stats *Stats) error {
	names := make([]string, 0, len(p.Scenarios))
	for i, s := range p.Scenarios {
		names = append(names, s.Name)
		if err := upsertNamedAmount(ctx, tx, stats, "overhead_scenarios", "fixed_cost_per_patient", p.Name, i, s.Name, s.FixedCostPerPatient); err != nil {
			return err
		}
	}
	return deleteMissing(ctx, tx, stats, "overhead_scenarios", "name", names, p.Name)
}

func syncSurcharges(ctx context.Context, tx *sql.Tx, p catalog.Profile, stats *Stats) error {
	names := make([]string, 0, len(p.Surcharges))
	for i, s := range p.Surcharges {
		names = append(names, s.Name)
		if err := upsertNamedAmount(ctx, tx, stats, "surcharges", "amount", p.Name, i, s.Name, s.Amount); err != nil {
			return err
		}
	}
	return deleteMissing(ctx, tx, stats, "surcharges", "name", names, p.Name)
}

// upsertNamedAmount syncs one row of a per-profile (position, name, amount) table.
// table and column are package constants, never user input.
func upsertNamedAmount(ctx context.Context, tx *sql.Tx, stats *Stats, table, column, profile string, position int, name string, value decimal.Decimal) error {
	var current decimal.Decimal
	var currentPosition int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT position, %s FROM %s WHERE profile = ? AND name = ?`, column, table),
		profile, name,
	).Scan(&currentPosition, &current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (profile, position, name, %s) VALUES (?, ?, ?, ?)`, table, column),
			profile, position, name, value,
		); err != nil {
			return fmt.Errorf("insert %s %q/%q: %w", table, profile, name, err)
		}
		stats.Inserts++
	case err != nil:
		return fmt.Errorf("query %s %q/%q: %w", table, profile, name, err)
	case currentPosition != position || !current.Equal(value):
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET position = ?, %s = ? WHERE profile = ? AND name = ?`, table, column),
			position, value, profile, name,
		); err != nil {
			return fmt.Errorf("update %s %q/%q: %w", table, profile, name, err)
		}
		stats.Updates++
	}
	return nil
}

func syncPresets(ctx context.Context, tx *sql.Tx, c *catalog.Catalog, stats *Stats) error {
	names := make([]string, 0, len(c.Presets))
	for i, p := range c.Presets {
		names = append(names, p.Name)

		codes := make([]string, 0, len(p.Tests))
		for _, code := range p.Tests {
			codes = append(codes, string(code))
		}
		tests := strings.Join(codes, ",")

		var currentTests string
		var currentPosition int
		err := tx.QueryRowContext(ctx, `SELECT position, tests FROM panel_presets WHERE name = ?`, p.Name).
			Scan(&currentPosition, &currentTests)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO panel_presets (name, position, tests)
				VALUES (?, ?, ?)
			`, p.Name, i, tests); err != nil {
				return fmt.Errorf("insert preset %q: %w", p.Name, err)
			}
			stats.Inserts++
		case err != nil:
			return fmt.Errorf("query preset %q: %w", p.Name, err)
		case currentPosition != i || currentTests != tests:
			if _, err := tx.ExecContext(ctx, `
				UPDATE panel_presets SET position = ?, tests = ? WHERE name = ?
			`, i, tests, p.Name); err != nil {
				return fmt.Errorf("update preset %q: %w", p.Name, err)
			}
			stats.Updates++
		}
	}

	return deleteMissing(ctx, tx, stats, "panel_presets", "name", names, "")
}

// deleteMissing removes rows whose key is not in keep. A non-empty profile
// limits the delete to that profile's rows.
func deleteMissing(ctx context.Context, tx *sql.Tx, stats *Stats, table, keyColumn string, keep []string, profile string) error {
	var (
		clauses []string
		args    []any
	)
	if profile != "" {
		clauses = append(clauses, "profile = ?")
		args = append(args, profile)
	}
	if len(keep) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
		clauses = append(clauses, fmt.Sprintf("%s NOT IN (%s)", keyColumn, placeholders))
		for _, k := range keep {
			args = append(args, k)
		}
	}

	query := "DELETE FROM " + table
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete stale %s rows: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("count deleted %s rows: %w", table, err)
	}
	stats.Deletes += int(affected)
	return nil
}
