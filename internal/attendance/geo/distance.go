package geo

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// DistanceM returns the great-circle distance in meters between two points.
// Symmetric by construction. Coordinates are taken as given; bounds checking
// happens upstream where an out-of-range value can be rejected with a
// meaningful error.
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// WithinRange reports whether the point is within thresholdM meters of the
// anchor.
func WithinRange(lat, lng float64, anchor Anchor, thresholdM float64) bool {
	return DistanceM(lat, lng, anchor.Lat, anchor.Lng) <= thresholdM
}
