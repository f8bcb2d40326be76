package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arion-db/arion/internal/obs"
)

var (
	dsn      string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "arion",
		Short: "Arion storage engine utility",
		Long:  "Run schema migration and broadcast listening against an Arion-managed database",
		PersistentPreRun: func(*cobra.Command, []string) {
			obs.SetLevelFromString(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN (postgres:// or sqlite://)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(listenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
