package contractorportal

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// earthRadiusMeters is the mean radius used for haversine distances.
const earthRadiusMeters = 6371000

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// CompletionRadiusMeters reads the maximum allowed distance between a
// contractor's completion photo and the complaint site. Zero (the default)
// disables the check.
func CompletionRadiusMeters() float64 {
	raw := os.Getenv("COMPLETION_RADIUS_METERS")
	if raw == "" {
		return 0
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius < 0 {
		return 0
	}
	return radius
}

// FormatDistance renders a distance for user-facing messages.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
