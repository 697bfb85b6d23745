package domain

import "fmt"

// GeoPoint is a WGS84 coordinate pair
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinates are inside WGS84 bounds
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// MaybeGeoPoint is a GeoPoint that may be absent. An absent point never
// carries partial coordinates.
type MaybeGeoPoint struct {
	Point   GeoPoint
	Present bool
}

// SomePoint wraps a present point
func SomePoint(p GeoPoint) MaybeGeoPoint { return MaybeGeoPoint{Point: p, Present: true} }

// LabeledPoint is a marker position with an optional popup label
type LabeledPoint struct {
	GeoPoint
	Label string `json:"label,omitempty"`
}
