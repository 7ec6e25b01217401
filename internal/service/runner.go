// README: Run orchestrator; builds a populated world, executes it, archives the result.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crowdship/internal/config"
	"crowdship/internal/modules/kpi"
	"crowdship/internal/modules/runs"
	"crowdship/internal/modules/scenario"
	"crowdship/internal/modules/sim"
)

// RunRequest carries the per-run overrides on top of the base config. Nil
// pointers mean "keep the configured default".
type RunRequest struct {
	Preset      string
	Seed        *int64
	Orders      *int
	PricingMode string
	WageMode    string
	Bundling    *bool
}

// Runner executes simulation runs end to end. The archive store is optional;
// without it runs are returned but not persisted.
type Runner struct {
	base    config.Config
	archive *runs.Store
	log     *slog.Logger
}

func NewRunner(base config.Config, archive *runs.Store, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{base: base, archive: archive, log: log}
}

// Execute builds the scenario, drains the event loop and returns the archived
// run record. A failed archive write does not fail the run.
func (r *Runner) Execute(ctx context.Context, req RunRequest) (*runs.Run, error) {
	cfg, err := r.configFor(req)
	if err != nil {
		return nil, err
	}

	st := sim.NewState(cfg.Sim.Start)
	scenario.NewGenerator(cfg).Populate(st)

	engine := sim.NewEngine(cfg, st, r.log)
	engine.ScheduleTicks()

	summary, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	run := &runs.Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Preset:    presetName(req.Preset),
		Seed:      cfg.Sim.Seed,
		Orders:    st.Orders.Len(),
		Drivers:   st.Drivers.Len(),
		Summary:   summary,
	}
	kpi.Publish(run.ID, summary)

	if r.archive != nil {
		if err := r.archive.Create(ctx, run); err != nil {
			r.log.Error("archiving run failed", "run", run.ID, "error", err)
		}
	}

	r.log.Info("run executed",
		"run", run.ID,
		"preset", run.Preset,
		"seed", run.Seed,
		"delivered", summary.Delivered,
		"match_rate", summary.MatchRate,
	)
	return run, nil
}

func (r *Runner) configFor(req RunRequest) (config.Config, error) {
	cfg, err := scenario.Apply(r.base, req.Preset)
	if err != nil {
		return config.Config{}, err
	}
	if req.Seed != nil {
		cfg.Sim.Seed = *req.Seed
	}
	if req.Orders != nil {
		cfg.Generation.Orders = *req.Orders
	}
	if req.PricingMode != "" {
		cfg.Pricing.Mode = req.PricingMode
	}
	if req.WageMode != "" {
		cfg.Pricing.WageMode = req.WageMode
	}
	if req.Bundling != nil {
		cfg.Matching.AllowBundling = *req.Bundling
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func presetName(p string) string {
	if p == "" {
		return scenario.PresetBaseline
	}
	return p
}
