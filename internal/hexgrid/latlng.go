package hexgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// Validate rejects non-finite values and coordinates outside
// lat [-90,90] / lng [-180,180].
func (p LatLng) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return fmt.Errorf("%w: %v is not a number", ErrInvalidCoordinate, p)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90,90]", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180,180]", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

func toVector(p LatLng) r3.Vector {
	lat := p.Lat * math.Pi / 180
	lng := p.Lng * math.Pi / 180
	cl := math.Cos(lat)
	return r3.Vector{X: cl * math.Cos(lng), Y: cl * math.Sin(lng), Z: math.Sin(lat)}
}

func fromVector(v r3.Vector) LatLng {
	lat := math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	lng := math.Atan2(v.Y, v.X)
	return LatLng{Lat: lat * 180 / math.Pi, Lng: lng * 180 / math.Pi}
}
