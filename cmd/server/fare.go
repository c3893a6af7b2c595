package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"campuspark/internal/config"
	"campuspark/internal/fare"
)

var fareCmd = &cobra.Command{
	Use:   "fare MINUTES",
	Short: "Print the fare for a number of parked minutes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes < 0 {
			return fmt.Errorf("invalid minutes %q", args[0])
		}

		rate, _ := cmd.Flags().GetFloat64("rate")
		if rate <= 0 {
			rate = config.Load(envFile).Parking.RatePerMinute
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d min x R$ %.2f = R$ %.2f\n", minutes, rate, fare.NewCalculator(rate).Calc(minutes))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the parking history schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd.Context())
	},
}

func init() {
	fareCmd.Flags().Float64("rate", 0, "Rate per minute (defaults to PARKING_RATE_PER_MINUTE)")
	rootCmd.AddCommand(fareCmd, migrateCmd)
}
