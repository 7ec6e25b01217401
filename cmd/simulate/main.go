// README: Batch simulation runner; executes runs from the command line and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"crowdship/internal/config"
	"crowdship/internal/infra"
	"crowdship/internal/modules/runs"
	"crowdship/internal/modules/scenario"
	"crowdship/internal/service"
)

type options struct {
	Preset      string
	Seed        int64
	Orders      int
	PricingMode string
	WageMode    string
	NoBundling  bool
	Sweep       bool
	DSN         string
	Verbose     bool
	Timeout     time.Duration
}

func main() {
	opts := loadOptions()

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	var archive *runs.Store
	if opts.DSN != "" {
		pool, err := infra.NewDB(ctx, opts.DSN)
		if err != nil {
			log.Error("connecting to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = runs.NewStore(pool)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Error("preparing run archive", "error", err)
			os.Exit(1)
		}
	}

	runner := service.NewRunner(cfg, archive, log)

	if opts.Sweep {
		if err := sweep(ctx, runner, opts); err != nil {
			log.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		return
	}

	run, err := runner.Execute(ctx, requestFrom(opts, opts.Preset, opts.PricingMode))
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
	printRun(run)
}

// sweep executes every preset under both pricing modes and prints one
// comparison line per combination.
func sweep(ctx context.Context, runner *service.Runner, opts options) error {
	presets := []string{scenario.PresetBaseline, scenario.PresetHighDemand, scenario.PresetTightDetour}
	modes := []string{"fixed", "dynamic"}

	fmt.Println("== Sweep ==")
	for _, preset := range presets {
		for _, mode := range modes {
			run, err := runner.Execute(ctx, requestFrom(opts, preset, mode))
			if err != nil {
				return err
			}
			s := run.Summary
			fmt.Printf("%-13s %-8s match=%.2f on_time=%.2f revenue=%.0f profit=%.0f emissions=%.1fkg\n",
				preset, mode, s.MatchRate, s.OnTimeRate, s.Revenue, s.Profit, s.EmissionsKg)
		}
	}
	return nil
}

func requestFrom(opts options, preset, pricingMode string) service.RunRequest {
	req := service.RunRequest{
		Preset:      preset,
		PricingMode: pricingMode,
		WageMode:    opts.WageMode,
	}
	if opts.Seed != 0 {
		seed := opts.Seed
		req.Seed = &seed
	}
	if opts.Orders != 0 {
		n := opts.Orders
		req.Orders = &n
	}
	if opts.NoBundling {
		off := false
		req.Bundling = &off
	}
	return req
}

func printRun(r *runs.Run) {
	s := r.Summary
	fmt.Println("== Run ==")
	fmt.Printf("id=%s preset=%s seed=%d\n", r.ID, r.Preset, r.Seed)
	fmt.Printf("orders=%d drivers=%d\n", r.Orders, r.Drivers)
	fmt.Printf("delivered=%d expired=%d cancelled=%d\n", s.Delivered, s.Expired, s.Cancelled)
	fmt.Printf("match_rate=%.2f on_time_rate=%.2f avg_detour=%.2fkm\n", s.MatchRate, s.OnTimeRate, s.AvgDetourKm)
	fmt.Printf("revenue=%.2f profit=%.2f driver_earnings=%.2f fleet_cost=%.2f\n",
		s.Revenue, s.Profit, s.DriverEarnings, s.FleetCost)
	fmt.Printf("distance=%.1fkm emissions=%.1fkg\n", s.TotalDistanceKm, s.EmissionsKg)
}

func loadOptions() options {
	var opts options
	flag.StringVar(&opts.Preset, "preset", envOrDefault("CROWDSHIP_PRESET", scenario.PresetBaseline), "Scenario preset")
	flag.Int64Var(&opts.Seed, "seed", 0, "Override the random seed (0 keeps the configured one)")
	flag.IntVar(&opts.Orders, "orders", 0, "Override the order count (0 keeps the configured one)")
	flag.StringVar(&opts.PricingMode, "pricing", "", "Pricing mode: fixed or dynamic")
	flag.StringVar(&opts.WageMode, "wage", "", "Wage mode: fixed or dynamic")
	flag.BoolVar(&opts.NoBundling, "no-bundling", false, "Disable order bundling")
	flag.BoolVar(&opts.Sweep, "sweep", false, "Run every preset under both pricing modes")
	flag.StringVar(&opts.DSN, "dsn", envOrDefault("CROWDSHIP_DB_DSN", ""), "Postgres DSN for the run archive (optional)")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose tick logging")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "Total timeout")
	flag.Parse()
	return opts
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
