// README: Run records: one archived summary per completed simulation.
package runs

import (
	"time"

	"crowdship/internal/modules/kpi"
)

// Run is the persisted outcome of one simulation, keyed by a generated uuid.
type Run struct {
	ID        string
	CreatedAt time.Time
	Preset    string
	Seed      int64
	Orders    int
	Drivers   int

	Summary kpi.Snapshot
}
