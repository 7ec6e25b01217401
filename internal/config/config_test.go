package config

import (
	"errors"
	"testing"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	return cfg
}

func TestValidate_RejectsBrokenSetups(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero orders", func(c *Config) { c.Generation.Orders = 0 }},
		{"no drivers", func(c *Config) {
			c.Generation.MetroDrivers = 0
			c.Generation.CourierDrivers = 0
			c.Generation.TruckDrivers = 0
		}},
		{"negative radius", func(c *Config) { c.Generation.RadiusKm = -1 }},
		{"zero tick", func(c *Config) { c.Sim.TickInterval = 0 }},
		{"zero horizon", func(c *Config) { c.Sim.Horizon = 0 }},
		{"zero bundle limit", func(c *Config) { c.Matching.BundleLimit = 0 }},
		{"zero detour", func(c *Config) { c.Matching.MaxDetourKm = 0 }},
		{"bad pricing mode", func(c *Config) { c.Pricing.Mode = "surge" }},
		{"bad wage mode", func(c *Config) { c.Pricing.WageMode = "hourly" }},
		{"commission over 1", func(c *Config) { c.Pricing.CommissionRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
