package geo

import "math"

const earthRadiusMiles = 3959

// Distance returns the great-circle distance between two points in miles.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Category buckets a competitor by distance from the home college.
type Category string

const (
	Local    Category = "local"    // under 50 miles
	Regional Category = "regional" // 50 to 250 miles
	National Category = "national" // over 250 miles
)

// Categorize maps a distance in miles to its category.
func Categorize(miles float64) Category {
	switch {
	case miles < 50:
		return Local
	case miles < 250:
		return Regional
	default:
		return National
	}
}
