// Package main provides the interview-insights command line: the HTTP API,
// the NATS worker, and offline analysis and scraping tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	termsPath  string
)

var rootCmd = &cobra.Command{
	Use:   "interview_insights",
	Short: "Interview experience analysis",
	Long: "interview_insights turns free-text interview write-ups into structured records: " +
		"rounds, categorized questions, insights, sentiment and highlights.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (environment variables take precedence)")
	rootCmd.PersistentFlags().StringVar(&termsPath, "terms", "", "Path to a term configuration file (overrides TERMS_FILE)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
