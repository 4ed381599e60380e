package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func testsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List the test catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tLIST PRICE\tREAGENT COST")
			for _, t := range c.Tests {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Code, t.ListPrice.StringFixed(2), t.ReagentCost.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}

func presetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List panel presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range c.Presets {
				codes := make([]string, 0, len(p.Tests))
				for _, code := range p.Tests {
					codes = append(codes, string(code))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Name, strings.Join(codes, ", "))
			}
			return nil
		},
	}
}

func profilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List pricing profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range c.Profiles {
				marker := ""
				if p.Name == a.cfg.Profile {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%s%s\n", p.Name, marker)
				fmt.Fprintf(out, "  add-on rate %s, floor %sx, marginal overhead $%s\n",
					p.Rules.AddOnRate.String(), p.Rules.FloorMultiple.String(), p.Rules.MarginalOverhead.StringFixed(2))
				for _, s := range p.Scenarios {
					fmt.Fprintf(out, "  scenario  %-20s $%s\n", s.Name, s.FixedCostPerPatient.StringFixed(2))
				}
				for _, s := range p.Surcharges {
					fmt.Fprintf(out, "  surcharge %-20s $%s\n", s.Name, s.Amount.StringFixed(2))
				}
			}
			return nil
		},
	}
}
