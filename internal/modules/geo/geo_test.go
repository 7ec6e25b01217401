package geo

import (
	"math"
	"testing"
	"time"

	"crowdship/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 33.7294, Lng: 73.0931},
			b:         types.Point{Lat: 33.7294, Lng: 73.0931},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Islamabad center to Blue Area (~6km)",
			a:         types.Point{Lat: 33.7294, Lng: 73.0931},
			b:         types.Point{Lat: 33.6844, Lng: 73.0479},
			wantKm:    6.5,
			tolerance: 1.0,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: 25.0, Lng: 121.0}
	b := types.Point{Lat: 26.0, Lng: 122.0}
	d1 := HaversineKm(a, b)
	d2 := HaversineKm(b, a)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestRoadDistanceKm_Factors(t *testing.T) {
	center := types.Point{Lat: 33.7294, Lng: 73.0931}
	// ~0.05 deg lat is ~5.5km straight line: arterial band.
	near := types.Point{Lat: center.Lat + 0.05, Lng: center.Lng}
	straight := HaversineKm(center, near)
	road := RoadDistanceKm(center, near)
	if math.Abs(road-straight*1.3) > 0.001 {
		t.Errorf("arterial factor: got %f, want %f", road, straight*1.3)
	}

	far := types.Point{Lat: center.Lat + 0.2, Lng: center.Lng}
	straight = HaversineKm(center, far)
	if road := RoadDistanceKm(center, far); math.Abs(road-straight*1.1) > 0.001 {
		t.Errorf("highway factor: got %f, want %f", road, straight*1.1)
	}
}

func TestTravelTime(t *testing.T) {
	if got := TravelTime(30, 30); got != time.Hour {
		t.Errorf("30km at 30km/h = %v, want 1h", got)
	}
	if got := TravelTime(10, 0); got <= 0 {
		t.Errorf("zero speed must not produce non-positive duration, got %v", got)
	}
}

func TestSlotOf(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		hour int
		want TimeSlot
	}{
		{8, SlotMorning},
		{9, SlotMorning},
		{10, SlotMidday},
		{15, SlotMidday},
		{16, SlotEvening},
		{19, SlotEvening},
		{20, SlotNight},
		{3, SlotNight},
	}
	for _, tt := range tests {
		if got := SlotOf(day.Add(time.Duration(tt.hour) * time.Hour)); got != tt.want {
			t.Errorf("SlotOf(hour=%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestCellOf_NeighboursDiffer(t *testing.T) {
	center := types.Point{Lat: 33.7294, Lng: 73.0931}
	at := CellOf(center, center, 5)
	if at != (Cell{}) {
		t.Errorf("center cell = %+v, want {0 0}", at)
	}
	// A point ~11km north lands two 5km rows up.
	north := types.Point{Lat: center.Lat + 0.1, Lng: center.Lng}
	if got := CellOf(north, center, 5); got.Row != 2 {
		t.Errorf("north cell row = %d, want 2", got.Row)
	}
}
