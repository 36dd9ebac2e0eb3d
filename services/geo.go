package services

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DefaultSearchRadiusKm applies when a nearby search omits the radius.
const DefaultSearchRadiusKm = 10.0

const degToRad = math.Pi / 180

// DistanceKm returns the great-circle distance between two coordinates in
// degrees. It uses the haversine form, which equals the spherical law of
// cosines but stays accurate for very short distances.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	a = math.Min(1, math.Max(0, a))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ValidCoordinate reports whether lat/lng are finite and in range.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// boxSlack widens the box so points on the radius boundary survive rounding.
const boxSlack = 1e-6

// boundingBox is a coordinate window that contains every point within a
// radius of its centre. It is a superset: callers still apply DistanceKm.
type boundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	// AllLongitudes is set when the circle contains a pole or crosses the
	// antimeridian; the longitude bounds must then be ignored.
	AllLongitudes bool
}

func newBoundingBox(lat, lng, radiusKm float64) boundingBox {
	angular := radiusKm / EarthRadiusKm
	if angular >= math.Pi {
		return boundingBox{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180, AllLongitudes: true}
	}

	dLat := angular/degToRad + boxSlack
	box := boundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	if lat-dLat <= -90 || lat+dLat >= 90 {
		box.AllLongitudes = true
		return box
	}

	ratio := math.Sin(angular) / math.Cos(lat*degToRad)
	if ratio >= 1 {
		box.AllLongitudes = true
		return box
	}

	dLng := math.Asin(ratio)/degToRad + boxSlack
	if lng-dLng < -180 || lng+dLng > 180 {
		box.AllLongitudes = true
		return box
	}

	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	return box
}
