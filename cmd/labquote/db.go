package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/db"
	"github.com/Simplici0/labquote/internal/migrations"
	"github.com/Simplici0/labquote/internal/seed"
)

func dbCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the reference-table database",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Apply migrations and seed the reference tables from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.dbPath
			if path == "" {
				path = a.cfg.DBPath
			}

			source, err := catalog.LoadFile(a.yamlPath())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			database, err := db.Open(ctx, path)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := migrations.Up(ctx, database, a.logger); err != nil {
				return err
			}
			version, err := migrations.Version(ctx, database)
			if err != nil {
				return err
			}

			stats, err := seed.Run(ctx, database, source)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d, %d inserted, %d updated, %d deleted\n",
				path, version, stats.Inserts, stats.Updates, stats.Deletes)
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	return cmd
}
