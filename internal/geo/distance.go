package geo

import "math"

const (
	earthRadiusKm     = 6371.0
	kmToNauticalMiles = 0.539957
)

// DistanceNauticalMiles returns the great-circle distance between two
// coordinates in nautical miles, using the haversine formula on a spherical
// Earth approximation.
func DistanceNauticalMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distanceKm := earthRadiusKm * c

	return distanceKm * kmToNauticalMiles
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
