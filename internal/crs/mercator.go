package crs

import "math"

// webMercator implements the spherical Pseudo-Mercator mapping used by
// EPSG:3857 (sphere radius = GRS80 semi-major axis).
type webMercator struct{}

func (webMercator) forward(lon, lat float64) (x, y float64) {
	x = grs80A * rad(lon)
	y = grs80A * math.Log(math.Tan(math.Pi/4+rad(lat)/2))
	return x, y
}

func (webMercator) inverse(x, y float64) (lon, lat float64) {
	lon = deg(x / grs80A)
	lat = deg(2*math.Atan(math.Exp(y/grs80A)) - math.Pi/2)
	return lon, lat
}
