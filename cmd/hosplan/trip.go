package main

import (
	"context"
	"eld-trip-service/internal/adapters/routing"
	"eld-trip-service/internal/config"
	"eld-trip-service/internal/services"
	"time"

	"github.com/spf13/cobra"
)

func tripCmd() *cobra.Command {
	var (
		opts    planOptions
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Geocode and route a trip with OpenRouteService, then plan it",
		Long: `Run the full planning pipeline against OpenRouteService.

Reads ORS_API_KEY (and optionally ORS_BASE_URL) from the environment or .env.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireORS(); err != nil {
				return err
			}

			provider, err := routing.NewORSRouteProvider(cfg.ORSAPIKey, routing.WithBaseURL(cfg.ORSBaseURL))
			if err != nil {
				return err
			}

			sheet, err := sheetInfo(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := services.PlanTrip(ctx, services.PlanTripRequest{
				CurrentLocation: opts.current,
				PickupLocation:  opts.pickup,
				DropoffLocation: opts.dropoff,
				CycleUsed:       opts.cycle,
				Sheet:           sheet,
			}, provider, nil)
			if err != nil {
				return err
			}

			return printPlan(cmd.OutOrStdout(), opts, planOutput{
				Segments: result.Segments,
				Summary:  result.Summary,
				Logs:     result.Logs,
			})
		},
	}

	addStopFlags(cmd, &opts)
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall time limit for routing calls")

	return cmd
}
