package geospatial

import (
	"math"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Distance is Haversine for two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLng: center.Lng - lngDelta,
		MaxLat: center.Lat + latDelta,
		MaxLng: center.Lng + lngDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
