package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	out, err := execute(t, "quote", "TSH", "FERRITIN")
	require.NoError(t, err)

	assert.Contains(t, out, "FINAL QUOTE: TSH + FERRITIN")
	assert.Contains(t, out, "ANCHOR: FERRITIN   $41.00")
	assert.Contains(t, out, "TOTAL PATIENT PRICE:    $59.00")
	assert.Contains(t, out, "Contribution Margin:    $55.08")
	assert.Contains(t, out, "PROFIT $21.08")
}

func TestQuoteCommand_CommaSeparatedAndConsoleProfile(t *testing.T) {
	out, err := execute(t, "quote", "tsh,ferritin,vit b12,magnesium", "--profile", "console")
	require.NoError(t, err)

	assert.Contains(t, out, "FINAL QUOTE: tsh + ferritin + vit b12 + magnesium")
	assert.Contains(t, out, "SURCHARGE 1:     $5.00 (Charity)")
	assert.Contains(t, out, "SURCHARGE 2:     $0.50 (Rev Share)")
	assert.Contains(t, out, "Jan 1 '26")
}

func TestQuoteCommand_Preset(t *testing.T) {
	out, err := execute(t, "quote", "--preset", "lipid panel", "--format", "csv")
	require.NoError(t, err)

	assert.Contains(t, out, "ANCHOR,CHOL,48.00")
	assert.Contains(t, out, "ADD_ON,TRIG,32.00")
}

func TestQuoteCommand_EmptySelection(t *testing.T) {
	out, err := execute(t, "quote")
	require.NoError(t, err)
	assert.Equal(t, "no tests selected\n", out)
}

func TestQuoteCommand_Errors(t *testing.T) {
	_, err := execute(t, "quote", "TSH", "--profile", "nope")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))

	_, err = execute(t, "quote", "TSH", "--format", "pdf")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	_, err = execute(t, "quote", "TSH", "--format", "xlsx")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))

	_, err = execute(t, "quote", "--preset", "nope")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestQuoteCommand_XLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thyroid.xlsx")

	out, err := execute(t, "quote", "--preset", "Thyroid Panel", "--format", "xlsx", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	anchor, err := f.GetCellValue("Breakdown", "B2")
	require.NoError(t, err)
	assert.Equal(t, "TSH", anchor)
}

func TestQuoteCommand_CustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tests:
  AAA: { list_price: 100, reagent_cost: 1 }
  BBB: { list_price: 10, reagent_cost: 4 }
profiles:
  dashboard:
    marginal_overhead: 2
    scenarios:
      - { name: "Flat", fixed_cost_per_patient: 50 }
`), 0o600))

	out, err := execute(t, "--catalog", path, "quote", "AAA", "BBB")
	require.NoError(t, err)
	// BBB: max(10*0.5, (4+2)*3) = 18
	assert.Contains(t, out, "ADD-ON: BBB        $18.00 (List: $10.00)")
	assert.Contains(t, out, "TOTAL PATIENT PRICE:    $118.00")
}

func TestListCommands(t *testing.T) {
	out, err := execute(t, "tests")
	require.NoError(t, err)
	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "HARMONY")
	assert.Contains(t, out, "1155.00")

	out, err = execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "Thyroid Panel: TSH, FT3, FT4\n")
	assert.Contains(t, out, "Iron Panel: IRON, FERRITIN\n")

	out, err = execute(t, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard (default)\n")
	assert.Contains(t, out, "console\n")
	assert.Contains(t, out, "Rev Share")
}

func TestDBInitThenQuoteFromDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labquote.db")

	out, err := execute(t, "--db", path, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1, 49 inserted, 0 updated, 0 deleted")

	out, err = execute(t, "--db", path, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "0 inserted, 0 updated, 0 deleted")

	out, err = execute(t, "--db", path, "quote", "TSH", "FERRITIN")
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL PATIENT PRICE:    $59.00")
}

func TestLoadCatalogMissingDatabase(t *testing.T) {
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "missing.db"), "tests")
	require.Error(t, err)
}

func TestSelectTests(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	tests, err := selectTests(c, "Iron Panel", []string{"TSH,, IRON", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"IRON", "FERRITIN", "TSH", "IRON"}, tests)
}
