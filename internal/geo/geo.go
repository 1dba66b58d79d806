package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

var (
	// ErrPermissionDenied is returned by a Locator when the user refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrInvalidCoordinates marks latitude/longitude outside decimal-degree range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that lat/lon are valid decimal degrees.
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Locator supplies the device position. Implementations are external collaborators.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// StaticLocator always reports a fixed position.
type StaticLocator struct {
	Point Point
}

func (s StaticLocator) Locate(ctx context.Context) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	if err := Validate(s.Point.Lat, s.Point.Lon); err != nil {
		return Point{}, err
	}
	return s.Point, nil
}

// DeniedLocator simulates a user refusing location access.
type DeniedLocator struct{}

func (DeniedLocator) Locate(context.Context) (Point, error) {
	return Point{}, ErrPermissionDenied
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (Point, error) { return f(ctx) }

// MapsURL links to a Google Maps search for the point.
func MapsURL(p Point) string {
	return "https://www.google.com/maps/search/?api=1&query=" +
		strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// FormatCoord renders a coordinate with four decimal places.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
