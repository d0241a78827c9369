package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/rm-hull/fuel-metrics-api/cmd"
)

func main() {
	var dbPath string
	var port int
	var debug bool
	var purge bool

	rootCmd := &cobra.Command{
		Use:   "fuel-metrics",
		Short: "Fuel price analytics and trip simulation API",
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/fuel_metrics.db", "Path to the SQLite database")

	apiServerCmd := &cobra.Command{
		Use:   "api-server",
		Short: "Start the HTTP API server and the scheduled imports",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(dbPath, port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable pprof debugging endpoints")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch the configured price survey source once and store it",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Import(dbPath, purge)
		},
	}
	importCmd.Flags().BoolVar(&purge, "purge", false, "Also drop observations older than the retention period")

	rootCmd.AddCommand(apiServerCmd, importCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
