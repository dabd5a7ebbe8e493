// Package geo resolves coordinates to named campus locations.
//
// A point belongs to a location when its great-circle distance to the
// location's center is within the location's radius. Locations are tried in
// the order supplied and the first containing one wins, so overlapping
// geofences resolve by registry order rather than by proximity.
package geo

import (
	"math"

	"github.com/bk001juma/api-matengenezo/internal/model"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by Distance.
	EarthRadiusMeters = 6371000.0

	// UnknownLocation is returned by Match when no geofence contains the point.
	UnknownLocation = "Unknown Location"
)

// Distance returns the Haversine great-circle distance in meters between two
// points given in decimal degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	latFrom := radians(lat1)
	lngFrom := radians(lng1)
	latTo := radians(lat2)
	lngTo := radians(lng2)

	latDelta := latTo - latFrom
	lngDelta := lngTo - lngFrom

	angle := 2 * math.Asin(math.Sqrt(
		math.Pow(math.Sin(latDelta/2), 2)+
			math.Cos(latFrom)*math.Cos(latTo)*math.Pow(math.Sin(lngDelta/2), 2),
	))

	return angle * EarthRadiusMeters
}

// Contains reports whether the point lies inside loc's geofence. The
// boundary counts as inside.
func Contains(loc model.Location, lat, lng float64) bool {
	return Distance(lat, lng, loc.Latitude, loc.Longitude) <= loc.RadiusMeters
}

// Match returns the name of the first location containing the point, or
// UnknownLocation.
func Match(lat, lng float64, locations []model.Location) string {
	for _, loc := range locations {
		if Contains(loc, lat, lng) {
			return loc.Name
		}
	}
	return UnknownLocation
}

// Containing returns every location containing the point, in input order.
// Its first element, when present, is the location Match picks.
func Containing(lat, lng float64, locations []model.Location) []model.Location {
	var out []model.Location
	for _, loc := range locations {
		if Contains(loc, lat, lng) {
			out = append(out, loc)
		}
	}
	return out
}

// Overlaps reports whether the geofences of a and b intersect.
func Overlaps(a, b model.Location) bool {
	return Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude) < a.RadiusMeters+b.RadiusMeters
}

// ValidCoordinates reports whether lat/lng fall within [-90,90] and [-180,180].
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
