package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/config"
	"github.com/Simplici0/labquote/internal/db"
	"github.com/Simplici0/labquote/internal/observability"
	"github.com/Simplici0/labquote/internal/store"
)

// app carries the persistent flags and the loaded configuration.
type app struct {
	catalogPath string
	dbPath      string
	cfg         *config.Config
	logger      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "labquote",
		Short:        "Price lab test panels with the anchor + add-on rule",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			observability.InitLoggerTo(cmd.ErrOrStderr(), cfg.ServiceName, true, cfg.LogLevel)
			a.logger = *observability.GetLogger()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "Catalog YAML file (default: CATALOG_PATH or the embedded catalog)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Read the catalog from this seeded SQLite database instead of YAML")

	rootCmd.AddCommand(quoteCmd(a))
	rootCmd.AddCommand(testsCmd(a))
	rootCmd.AddCommand(presetsCmd(a))
	rootCmd.AddCommand(profilesCmd(a))
	rootCmd.AddCommand(dbCmd(a))

	return rootCmd
}

// loadCatalog reads the catalog from --db when given, otherwise from the
// YAML document named by --catalog or CATALOG_PATH.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if a.dbPath != "" {
		if _, err := os.Stat(a.dbPath); err != nil {
			return nil, fmt.Errorf("database %s: %w", a.dbPath, err)
		}
		database, err := db.Open(ctx, a.dbPath)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		return store.LoadCatalog(ctx, database)
	}
	return catalog.LoadFile(a.yamlPath())
}

func (a *app) yamlPath() string {
	if a.catalogPath != "" {
		return a.catalogPath
	}
	return a.cfg.CatalogPath
}
