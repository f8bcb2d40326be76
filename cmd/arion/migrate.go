package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arion-db/arion/backend"
	_ "github.com/arion-db/arion/backend/postgres"
	_ "github.com/arion-db/arion/backend/sqlite"
	"github.com/arion-db/arion/migrate"
	"github.com/arion-db/arion/schema"
)

func migrateCmd() *cobra.Command {
	var documentRoot string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Ensure housekeeping tables and report schema versions",
		Long: "Connects to the database, creates the housekeeping tables if they are " +
			"missing, and prints every DDL statement executed. Application scheme sets " +
			"are migrated by the embedding program through migrate.Engine; this command " +
			"covers the scheme-independent substrate.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			ctx := cmd.Context()

			adapter, err := backend.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer adapter.Close()

			engine := migrate.New(adapter, documentRoot)
			defer engine.Close()

			report, err := engine.Run(ctx, schema.NewSet())
			if report != nil {
				for _, stmt := range report.Statements() {
					fmt.Println(stmt)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&documentRoot, "document-root", "", "directory DDL audit reports are written under")
	return cmd
}
