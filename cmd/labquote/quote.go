package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/report"
)

func quoteCmd(a *app) *cobra.Command {
	var (
		profile string
		preset  string
		format  string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "quote [tests...]",
		Short: "Price a panel of tests",
		Example: `  labquote quote TSH FERRITIN
  labquote quote TSH,FERRITIN,VIT_B12 --profile console
  labquote quote --preset "Thyroid Panel" --format xlsx --out thyroid.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == report.FormatXLSX && out == "" {
				return apperrors.NewValidationError("xlsx output needs --out")
			}

			c, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			if profile == "" {
				profile = a.cfg.Profile
			}
			engine, err := c.Engine(profile)
			if err != nil {
				return err
			}

			tests, err := selectTests(c, preset, args)
			if err != nil {
				return err
			}

			quote, ok := engine.CalculateQuote(tests)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no tests selected")
				return nil
			}

			if out == "" {
				return report.Write(cmd.OutOrStdout(), f, quote)
			}
			return writeFile(out, func(w io.Writer) error {
				return report.Write(w, f, quote)
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Pricing profile (default: PRICING_PROFILE)")
	cmd.Flags().StringVar(&preset, "preset", "", "Start from a named panel preset")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

// selectTests expands the preset and splits comma-separated arguments. The
// engine prices repeated codes separately, so nothing is deduplicated.
func selectTests(c *catalog.Catalog, preset string, args []string) ([]string, error) {
	var tests []string
	if preset != "" {
		p, err := c.Preset(preset)
		if err != nil {
			return nil, err
		}
		for _, code := range p.Tests {
			tests = append(tests, string(code))
		}
	}
	for _, arg := range args {
		for _, raw := range strings.Split(arg, ",") {
			if raw = strings.TrimSpace(raw); raw != "" {
				tests = append(tests, raw)
			}
		}
	}
	return tests, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
