// Package geo provides great-circle distance math and the static city/airport
// registry used by the airport search intent.
package geo

import (
	"math"

	"github.com/krili-app/agency-cli/internal/model"
)

// earthRadiusMeters is the spherical-Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in meters
// (Haversine on a spherical Earth). Pure function, no error cases: callers
// must guard against placeholder (0,0) coordinates themselves, since those
// produce a numerically valid but semantically meaningless result.
func Distance(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
