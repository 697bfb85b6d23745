package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

var (
	// ErrEmptyPoint is returned for blank cells and POINT EMPTY
	ErrEmptyPoint = errors.New("empty point")
	// ErrInvalidPoint wraps every other WKT failure
	ErrInvalidPoint = errors.New("invalid point")
)

// ParsePoint parses a WKT "POINT (<lon> <lat>)" string
func ParsePoint(s string) (domain.GeoPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(strings.ToUpper(s), "EMPTY") {
		return domain.GeoPoint{}, ErrEmptyPoint
	}
	p, err := wkt.UnmarshalPoint(s)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	gp := domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
	if !finite(gp.Lat) || !finite(gp.Lon) || !gp.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("%w: %s out of range", ErrInvalidPoint, gp)
	}
	return gp, nil
}

// pointFromColumns reads a point from separate latitude and longitude cells
func pointFromColumns(lat, lon domain.Value) (domain.GeoPoint, error) {
	la, ok1 := lat.Float()
	lo, ok2 := lon.Float()
	if !ok1 || !ok2 {
		if lat.IsEmpty() && lon.IsEmpty() {
			return domain.GeoPoint{}, ErrEmptyPoint
		}
		return domain.GeoPoint{}, fmt.Errorf("%w: non-numeric coordinates", ErrInvalidPoint)
	}
	gp := domain.GeoPoint{Lat: la, Lon: lo}
	if !finite(la) || !finite(lo) || !gp.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("%w: %s out of range", ErrInvalidPoint, gp)
	}
	return gp, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
