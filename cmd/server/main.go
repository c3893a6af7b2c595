package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "campuspark",
	Short: "Campus parking session, fare and wallet service",
	Long: `campuspark runs the parking core behind the campus parking app: spot
selection, the session countdown, fare settlement against the wallet
service with a local balance fallback, and credit purchases.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	rootCmd.Flags().String("port", "", "HTTP port (overrides SERVER_PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
