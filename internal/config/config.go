// README: Config loader with env defaults for simulation, pricing, matching and infra settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type MatchingConfig struct {
	MaxDetourKm    float64
	BundleLimit    int
	AllowBundling  bool
	ClusterCellKm  float64
	FleetCutoffMin int
}

type SimulationConfig struct {
	Start            time.Time
	Horizon          time.Duration
	TickInterval     time.Duration
	MaxDeliveryTime  time.Duration
	PostHorizonGrace time.Duration
	Seed             int64
}

type GenerationConfig struct {
	Orders         int
	MetroDrivers   int
	CourierDrivers int
	TruckDrivers   int
	FleetVehicles  int
	CenterLat      float64
	CenterLng      float64
	RadiusKm       float64
}

type PricingConfig struct {
	Mode           string // "fixed" or "dynamic"
	WageMode       string
	CommissionRate float64
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		// DSN is optional; when empty no run persistence is attached.
		DSN string
	}
	Sim        SimulationConfig
	Generation GenerationConfig
	Matching   MatchingConfig
	Pricing    PricingConfig
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("CROWDSHIP_HTTP_ADDR", ":8080")
	cfg.DB.DSN = envOrDefault("CROWDSHIP_DB_DSN", "")

	cfg.Sim.Start = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	cfg.Sim.Horizon = time.Duration(envOrDefaultInt("CROWDSHIP_HORIZON_HOURS", 12)) * time.Hour
	cfg.Sim.TickInterval = time.Duration(envOrDefaultInt("CROWDSHIP_TICK_MINUTES", 15)) * time.Minute
	cfg.Sim.MaxDeliveryTime = time.Duration(envOrDefaultInt("CROWDSHIP_MAX_DELIVERY_MINUTES", 30)) * time.Minute
	cfg.Sim.PostHorizonGrace = time.Duration(envOrDefaultInt("CROWDSHIP_GRACE_MINUTES", 5)) * time.Minute
	cfg.Sim.Seed = int64(envOrDefaultInt("CROWDSHIP_SEED", 1))

	cfg.Generation.Orders = envOrDefaultInt("CROWDSHIP_ORDERS", 200)
	cfg.Generation.MetroDrivers = envOrDefaultInt("CROWDSHIP_METRO_DRIVERS", 13)
	cfg.Generation.CourierDrivers = envOrDefaultInt("CROWDSHIP_COURIER_DRIVERS", 50)
	cfg.Generation.TruckDrivers = envOrDefaultInt("CROWDSHIP_TRUCK_DRIVERS", 5)
	cfg.Generation.FleetVehicles = envOrDefaultInt("CROWDSHIP_FLEET_VEHICLES", 10)
	cfg.Generation.CenterLat = envOrDefaultFloat("CROWDSHIP_CENTER_LAT", 33.7294)
	cfg.Generation.CenterLng = envOrDefaultFloat("CROWDSHIP_CENTER_LNG", 73.0931)
	cfg.Generation.RadiusKm = envOrDefaultFloat("CROWDSHIP_RADIUS_KM", 25.0)

	cfg.Matching.MaxDetourKm = envOrDefaultFloat("CROWDSHIP_MAX_DETOUR_KM", 50.0)
	cfg.Matching.BundleLimit = envOrDefaultInt("CROWDSHIP_BUNDLE_LIMIT", 5)
	cfg.Matching.AllowBundling = envOrDefault("CROWDSHIP_BUNDLING", "on") != "off"
	cfg.Matching.ClusterCellKm = envOrDefaultFloat("CROWDSHIP_CLUSTER_CELL_KM", 5.0)
	cfg.Matching.FleetCutoffMin = envOrDefaultInt("CROWDSHIP_FLEET_CUTOFF_MINUTES", 30)

	cfg.Pricing.Mode = envOrDefault("CROWDSHIP_PRICING_MODE", "dynamic")
	cfg.Pricing.WageMode = envOrDefault("CROWDSHIP_WAGE_MODE", "dynamic")
	cfg.Pricing.CommissionRate = envOrDefaultFloat("CROWDSHIP_COMMISSION", 0.15)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate fails fast before any simulation state exists. Constraint
// violations inside a run are never errors; a broken setup always is.
func (c Config) Validate() error {
	if c.Generation.Orders <= 0 {
		return fmt.Errorf("%w: order count must be positive, got %d", ErrInvalidConfig, c.Generation.Orders)
	}
	if c.Generation.MetroDrivers+c.Generation.CourierDrivers+c.Generation.TruckDrivers <= 0 {
		return fmt.Errorf("%w: at least one driver is required", ErrInvalidConfig)
	}
	if c.Generation.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %f", ErrInvalidConfig, c.Generation.RadiusKm)
	}
	if c.Sim.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if c.Sim.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive", ErrInvalidConfig)
	}
	if c.Matching.BundleLimit <= 0 {
		return fmt.Errorf("%w: bundle limit must be positive", ErrInvalidConfig)
	}
	if c.Matching.MaxDetourKm <= 0 {
		return fmt.Errorf("%w: max detour must be positive", ErrInvalidConfig)
	}
	switch c.Pricing.Mode {
	case "fixed", "dynamic":
	default:
		return fmt.Errorf("%w: unknown pricing mode %q", ErrInvalidConfig, c.Pricing.Mode)
	}
	switch c.Pricing.WageMode {
	case "fixed", "dynamic":
	default:
		return fmt.Errorf("%w: unknown wage mode %q", ErrInvalidConfig, c.Pricing.WageMode)
	}
	if c.Pricing.CommissionRate < 0 || c.Pricing.CommissionRate >= 1 {
		return fmt.Errorf("%w: commission rate %f out of [0,1)", ErrInvalidConfig, c.Pricing.CommissionRate)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
