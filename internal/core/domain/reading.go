package domain

import (
	"fmt"
	"time"
)

// Location identifies where live readings are taken.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Validate bounds-checks the coordinates.
func (l Location) Validate() error {
	if !isFinite(l.Latitude) || !isFinite(l.Longitude) ||
		l.Latitude < -90 || l.Latitude > 90 ||
		l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Key is a stable cache key for the location at 4-decimal precision.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Reading is the latest set of upstream pollutant values, keyed by feature name.
type Reading struct {
	Location   Location           `json:"location"`
	Values     map[string]float64 `json:"values"`
	ObservedAt time.Time          `json:"observed_at"`
}
