package main

import (
	"encoding/json"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/services"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// planOutput is what both commands print.
type planOutput struct {
	Segments []domain.Segment   `json:"segments"`
	Summary  domain.TripSummary `json:"summary"`
	Logs     []domain.LogDay    `json:"logs"`
}

type planOptions struct {
	cycle     float64
	current   string
	pickup    string
	dropoff   string
	legs      string
	legsFile  string
	startDate string
	driver    string
	carrier   string
	truck     string
	logsOnly  bool
}

func planCmd() *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a trip from known route legs without calling a routing service",
		Long: `Plan a trip from route legs given on the command line.

Legs are "miles:hours" pairs separated by commas, for example
  hosplan plan --cycle 20 --legs 250:4.5,900:16.4
or a JSON array of {"distance": miles, "duration": hours} read with --legs-file
("-" reads stdin).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			legs, err := readLegs(opts, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runPlan(cmd.OutOrStdout(), opts, legs)
		},
	}

	addStopFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.legs, "legs", "", "Route legs as miles:hours[,miles:hours...]")
	cmd.Flags().StringVar(&opts.legsFile, "legs-file", "", "JSON file with route legs")

	return cmd
}

func addStopFlags(cmd *cobra.Command, opts *planOptions) {
	cmd.Flags().Float64VarP(&opts.cycle, "cycle", "c", 0, "Hours already used in the 70-hour cycle")
	cmd.Flags().StringVar(&opts.current, "current", "Current Location", "Current location")
	cmd.Flags().StringVar(&opts.pickup, "pickup", "Pickup Location", "Pickup location")
	cmd.Flags().StringVar(&opts.dropoff, "dropoff", "Dropoff Location", "Dropoff location")
	cmd.Flags().StringVar(&opts.startDate, "start-date", "", "Date of the first log day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.driver, "driver", "Driver", "Driver name printed on the log sheets")
	cmd.Flags().StringVar(&opts.carrier, "carrier", "Carrier", "Carrier name printed on the log sheets")
	cmd.Flags().StringVar(&opts.truck, "truck", "101", "Truck number printed on the log sheets")
	cmd.Flags().BoolVar(&opts.logsOnly, "logs-only", false, "Print only the daily logs")
}

func runPlan(w io.Writer, opts planOptions, legs []domain.RouteLeg) error {
	engine, err := services.NewHOSEngine(opts.cycle)
	if err != nil {
		return err
	}

	miles := 0.0
	for _, l := range legs {
		miles += l.DistanceMiles
	}

	segments, summary, err := engine.CalculateTripSegments(miles, opts.current, opts.pickup, opts.dropoff, legs)
	if err != nil {
		return err
	}

	sheet, err := sheetInfo(opts)
	if err != nil {
		return err
	}

	stops := services.TripStops{Current: opts.current, Pickup: opts.pickup, Dropoff: opts.dropoff}
	logs, err := services.ConvertToDailyLogs(segments, stops, sheet)
	if err != nil {
		return err
	}

	return printPlan(w, opts, planOutput{Segments: segments, Summary: summary, Logs: logs})
}

func sheetInfo(opts planOptions) (services.LogSheetInfo, error) {
	start := time.Now()
	if opts.startDate != "" {
		d, err := time.Parse(dateLayout, opts.startDate)
		if err != nil {
			return services.LogSheetInfo{}, fmt.Errorf("start date: %w", err)
		}
		start = d
	}

	return services.LogSheetInfo{
		StartDate:   start,
		DriverName:  opts.driver,
		CarrierName: opts.carrier,
		TruckNumber: opts.truck,
	}, nil
}

func printPlan(w io.Writer, opts planOptions, out planOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if opts.logsOnly {
		return enc.Encode(out.Logs)
	}
	return enc.Encode(out)
}

func readLegs(opts planOptions, stdin io.Reader) ([]domain.RouteLeg, error) {
	switch {
	case opts.legs != "" && opts.legsFile != "":
		return nil, fmt.Errorf("use either --legs or --legs-file, not both")
	case opts.legs != "":
		return parseLegs(opts.legs)
	case opts.legsFile != "":
		var r io.Reader = stdin
		if opts.legsFile != "-" {
			f, err := os.Open(opts.legsFile)
			if err != nil {
				return nil, fmt.Errorf("legs file: %w", err)
			}
			defer f.Close()
			r = f
		}

		var legs []domain.RouteLeg
		if err := json.NewDecoder(r).Decode(&legs); err != nil {
			return nil, fmt.Errorf("legs file: %w", err)
		}
		return legs, nil
	}
	return nil, fmt.Errorf("route legs are required (--legs or --legs-file)")
}

// parseLegs reads "miles:hours" pairs separated by commas.
func parseLegs(s string) ([]domain.RouteLeg, error) {
	var legs []domain.RouteLeg
	for i, part := range strings.Split(s, ",") {
		miles, hours, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("leg %d: want miles:hours, got %q", i+1, part)
		}

		d, err := strconv.ParseFloat(miles, 64)
		if err != nil {
			return nil, fmt.Errorf("leg %d: miles: %w", i+1, err)
		}
		h, err := strconv.ParseFloat(hours, 64)
		if err != nil {
			return nil, fmt.Errorf("leg %d: hours: %w", i+1, err)
		}

		leg := domain.RouteLeg{DistanceMiles: d, DurationHours: h}
		if err := leg.Validate(); err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}
