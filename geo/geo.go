// Package geo provides great-circle distance and travel helpers used to rank
// pharmacies around a user location. All functions are pure.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula
const EarthRadiusKm = 6371.0

// TravelMode selects the average speed used by EstimateTravelTime
type TravelMode string

const (
	Walking TravelMode = "walking"
	Cycling TravelMode = "cycling"
	Driving TravelMode = "driving"
)

// speeds in km/h
var travelSpeeds = map[TravelMode]float64{
	Walking: 5,
	Cycling: 15,
	Driving: 30,
}

var directions = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Point is a latitude/longitude pair in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is the lat/lng rectangle enclosing a circle
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// TravelEstimate is the result of EstimateTravelTime
type TravelEstimate struct {
	Minutes   int        `json:"minutes"`
	Formatted string     `json:"formatted"`
	Mode      TravelMode `json:"mode"`
}

// Distance returns the Haversine distance in kilometers between two points,
// rounded to 2 decimal places.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// Floating error can push a slightly outside [0,1] for antipodal points
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return round2(EarthRadiusKm * c)
}

// DistanceBetween is Distance for two Points
func DistanceBetween(from, to Point) float64 {
	return Distance(from.Lat, from.Lng, to.Lat, to.Lng)
}

// Bearing returns the initial compass bearing from the first point to the
// second, normalized to [0, 360).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	dLng := toRadians(lng2 - lng1)
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	y := math.Sin(dLng) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLng)

	bearing := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	if bearing >= 360 {
		bearing = 0
	}
	return bearing
}

// Direction buckets a bearing into one of 8 compass directions. Each bucket is
// 45 degrees wide and centered on its heading, so 22.4 is N and 22.5 is NE.
func Direction(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	index := int(math.Floor(b/45+0.5)) % 8
	return directions[index]
}

// EstimateTravelTime converts a distance into minutes using a fixed average
// speed per mode. Unknown modes are treated as driving.
func EstimateTravelTime(distanceKm float64, mode TravelMode) TravelEstimate {
	speed, ok := travelSpeeds[mode]
	if !ok {
		mode = Driving
		speed = travelSpeeds[Driving]
	}

	minutes := int(math.Round(distanceKm / speed * 60))

	var formatted string
	if minutes < 60 {
		formatted = fmt.Sprintf("%d min", minutes)
	} else {
		hours := minutes / 60
		rest := minutes % 60
		if rest > 0 {
			formatted = fmt.Sprintf("%dh %dm", hours, rest)
		} else {
			formatted = fmt.Sprintf("%dh", hours)
		}
	}

	return TravelEstimate{Minutes: minutes, Formatted: formatted, Mode: mode}
}

// FormatDistance renders a distance for display: meters under 1km, one decimal
// under 10km, whole kilometers beyond.
func FormatDistance(distanceKm float64) string {
	switch {
	case distanceKm < 1:
		return fmt.Sprintf("%dm", int(math.Round(distanceKm*1000)))
	case distanceKm < 10:
		return fmt.Sprintf("%gkm", math.Round(distanceKm*10)/10)
	default:
		return fmt.Sprintf("%dkm", int(math.Round(distanceKm)))
	}
}

// BoundingBoxAround returns the rectangle that encloses a circle of radiusKm
// around the given center.
func BoundingBoxAround(lat, lng, radiusKm float64) BoundingBox {
	angular := radiusKm / EarthRadiusKm

	deltaLng := math.Asin(math.Min(1, math.Sin(angular)/math.Cos(toRadians(lat))))

	return BoundingBox{
		North: lat + toDegrees(angular),
		South: lat - toDegrees(angular),
		East:  lng + toDegrees(deltaLng),
		West:  lng - toDegrees(deltaLng),
	}
}

// WithinRadius reports whether point lies within radiusKm of center
func WithinRadius(point, center Point, radiusKm float64) bool {
	return DistanceBetween(point, center) <= radiusKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
