package kernel

import (
	"errors"
	"fmt"
	"math"

	"fleet/internal/pkg/errs"
	"fleet/internal/pkg/guard"
)

// Latitude and longitude bounds in decimal degrees.
const (
	LatitudeMin  float64 = -90
	LatitudeMax  float64 = 90
	LongitudeMin float64 = -180
	LongitudeMax float64 = 180
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// ErrGeoPointIsNotConstructed is returned when a GeoPoint was not created via
// NewGeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint constructor")

// GeoPoint is an immutable geographic coordinate (latitude, longitude) in
// decimal degrees. It is the position type for nodes and robots.
//
// Distances between points are great-circle distances in kilometers, which
// makes traversal cost symmetric and non-negative by construction.
type GeoPoint struct { //nolint:recvcheck // value receivers for reads, pointer for setters
	latitude  float64
	longitude float64
	guard     guard.ConstructorGuard
}

// NewGeoPoint creates a validated geographic coordinate.
func NewGeoPoint(latitude, longitude float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLatitude(latitude), p.setLongitude(longitude)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Latitude() float64 {
	return p.latitude
}

func (p GeoPoint) Longitude() float64 {
	return p.longitude
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.latitude, p.longitude)
}

func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.latitude == other.latitude && p.longitude == other.longitude, nil
}

// DistanceTo returns the great-circle distance to other in kilometers using
// the haversine formula.
func (p GeoPoint) DistanceTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := p.latitude * math.Pi / 180
	lat2 := other.latitude * math.Pi / 180
	dLat := (other.latitude - p.latitude) * math.Pi / 180
	dLon := (other.longitude - p.longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}

// Interpolate returns the point at fraction t along the segment from p to
// other, with t clamped to [0,1]. Linear interpolation over coordinates is
// accurate enough at delivery-zone scale and keeps observer position deltas
// smooth.
func (p GeoPoint) Interpolate(other GeoPoint, t float64) (GeoPoint, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return GeoPoint{}, err
	}

	t = math.Max(0, math.Min(1, t))
	return NewGeoPoint(
		p.latitude+(other.latitude-p.latitude)*t,
		p.longitude+(other.longitude-p.longitude)*t,
	)
}

func (p *GeoPoint) setLatitude(latitude float64) error {
	if latitude < LatitudeMin || latitude > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", latitude, LatitudeMin, LatitudeMax)
	}

	p.latitude = latitude
	return nil
}

func (p *GeoPoint) setLongitude(longitude float64) error {
	if longitude < LongitudeMin || longitude > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", longitude, LongitudeMin, LongitudeMax)
	}

	p.longitude = longitude
	return nil
}
