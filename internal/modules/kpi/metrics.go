// README: Prometheus export of the latest KPI snapshot.
package kpi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Marketplace metrics
	MatchRateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_match_rate",
			Help: "Share of orders matched or delivered in the latest run",
		},
		[]string{"run"},
	)

	OrdersByStatusGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_orders_total",
			Help: "Order counts by terminal and live status",
		},
		[]string{"run", "status"},
	)

	// Financial metrics
	RevenueGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_revenue_total",
			Help: "Revenue from delivered orders",
		},
		[]string{"run"},
	)

	ProfitGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_platform_profit_total",
			Help: "Commission taken on delivered orders",
		},
		[]string{"run"},
	)

	DriverEarningsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_driver_earnings_total",
			Help: "Wages paid out to drivers",
		},
		[]string{"run"},
	)

	// Environmental metrics
	EmissionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_emissions_kg",
			Help: "Estimated CO2 emitted by completed deliveries",
		},
		[]string{"run"},
	)

	AvgDetourGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdship_avg_detour_km",
			Help: "Average detour over the direct route for delivered orders",
		},
		[]string{"run"},
	)
)

// Publish pushes a snapshot onto the run-labelled gauges.
func Publish(runID string, s Snapshot) {
	MatchRateGauge.WithLabelValues(runID).Set(s.MatchRate)

	OrdersByStatusGauge.WithLabelValues(runID, "published").Set(float64(s.Published))
	OrdersByStatusGauge.WithLabelValues(runID, "accepted").Set(float64(s.Accepted))
	OrdersByStatusGauge.WithLabelValues(runID, "delivered").Set(float64(s.Delivered))
	OrdersByStatusGauge.WithLabelValues(runID, "expired").Set(float64(s.Expired))
	OrdersByStatusGauge.WithLabelValues(runID, "cancelled").Set(float64(s.Cancelled))

	RevenueGauge.WithLabelValues(runID).Set(s.Revenue)
	ProfitGauge.WithLabelValues(runID).Set(s.Profit)
	DriverEarningsGauge.WithLabelValues(runID).Set(s.DriverEarnings)

	EmissionsGauge.WithLabelValues(runID).Set(s.EmissionsKg)
	AvgDetourGauge.WithLabelValues(runID).Set(s.AvgDetourKm)
}
