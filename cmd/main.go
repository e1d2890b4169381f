// Command nexcast runs the session, frame and history API.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nexcast",
	Short: "NexCast API: sessions, frame ingestion, commentary history",
	Long:  `HTTP + WebSocket API, or an API Gateway Lambda handler. Commands: serve, lambda, migrate.`,
	RunE:  runServe, // default: same as "nexcast serve"
	// errors are logged once by main
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
