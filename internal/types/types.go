// README: Common value objects shared across modules.
package types

// ID identifies an entity (order, driver, fleet vehicle, run).
type ID string

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
