// Package geofence carries the office geo-fence math. The distance
// check itself runs in the browser against the coordinates this service
// publishes; the same formula lives here so it is testable and so the
// fence config endpoint and any future server-side reporting agree on
// the numbers. A geo-fence is advisory only and never gates a mutation
// by itself.
package geofence

import (
	"math"

	"github.com/nameha1/synergyhr/internal/gate/models"
)

// earthRadiusMeters is the mean Earth radius used by the haversine
// formula.
const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two
// coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Contains reports whether the coordinate falls inside the fence. A
// disabled fence contains everything.
func Contains(fence models.GeoFence, lat, lon float64) bool {
	if !fence.Enabled {
		return true
	}
	return Distance(fence.Latitude, fence.Longitude, lat, lon) <= fence.RadiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
