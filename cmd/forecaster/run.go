package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCity string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one forecast and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			printError("%v", err)
			return err
		}
		defer logger.Sync()

		city := runCity
		if city == "" {
			city = cfg.Forecast.DefaultCity
		}

		forecaster, runs, err := buildForecaster(cfg, logger)
		if err != nil {
			printError("%v", err)
			return err
		}
		defer runs.Stop()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report, err := forecaster.Run(ctx, city)
		if err != nil && report == nil {
			printError("%v", err)
			return err
		}
		if err != nil {
			printError("Forecast for %s aborted during %s", city, report.FailedStage)
			printError("%s", report.Reason)
			return fmt.Errorf("run %s: %w", report.ID, err)
		}

		fmt.Println(report.Message)
		for _, warning := range report.Warnings {
			printWarning("%s", warning)
		}
		printSuccess("Forecast %s for %s completed", report.ID, city)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runCity, "city", "c", "", "city to forecast (defaults to FORECAST_CITY)")
}
