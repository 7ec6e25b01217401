// README: Named scenario presets layered on top of the base config.
package scenario

import (
	"fmt"

	"crowdship/internal/config"
)

// Presets adjust demand, supply and matching knobs for common experiments.
const (
	PresetBaseline    = "baseline"
	PresetHighDemand  = "high_demand"
	PresetTightDetour = "tight_detour"
)

// Apply overlays a named preset onto the config. Unknown names are an error
// so a typo in a flag fails loudly rather than silently running baseline.
func Apply(cfg config.Config, preset string) (config.Config, error) {
	switch preset {
	case "", PresetBaseline:
		return cfg, nil
	case PresetHighDemand:
		cfg.Generation.Orders *= 3
		return cfg, nil
	case PresetTightDetour:
		cfg.Matching.MaxDetourKm = 5
		return cfg, nil
	default:
		return cfg, fmt.Errorf("unknown scenario preset %q", preset)
	}
}
