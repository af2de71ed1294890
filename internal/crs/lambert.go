package crs

import "math"

// GRS80 ellipsoid, used by all NAD83 state plane zones in the registry.
const (
	grs80A = 6378137.0
	grs80F = 1.0 / 298.257222101
)

// lambertParams holds Lambert Conformal Conic (2SP) zone parameters.
// Angles are in degrees; false origins in meters regardless of the zone's
// published unit, with metersPerUnit applied at the edge.
type lambertParams struct {
	lat1, lat2     float64 // standard parallels
	lat0, lon0     float64 // latitude / longitude of false origin
	falseEastingM  float64
	falseNorthingM float64
	metersPerUnit  float64
}

// lambert implements the ellipsoidal LCC-2SP forward and inverse mappings
// (EPSG method 9802). Zone constants are precomputed at construction.
type lambert struct {
	p          lambertParams
	e          float64 // first eccentricity
	n, f, rho0 float64
}

func newLambert(p lambertParams) lambert {
	e2 := 2*grs80F - grs80F*grs80F
	e := math.Sqrt(e2)

	phi1 := rad(p.lat1)
	phi2 := rad(p.lat2)
	phi0 := rad(p.lat0)

	m1 := lccM(phi1, e)
	m2 := lccM(phi2, e)
	t0 := lccT(phi0, e)
	t1 := lccT(phi1, e)
	t2 := lccT(phi2, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f := m1 / (n * math.Pow(t1, n))
	rho0 := grs80A * f * math.Pow(t0, n)

	return lambert{p: p, e: e, n: n, f: f, rho0: rho0}
}

func (l lambert) forward(lon, lat float64) (x, y float64) {
	t := lccT(rad(lat), l.e)
	rho := grs80A * l.f * math.Pow(t, l.n)
	theta := l.n * (rad(lon) - rad(l.p.lon0))

	xm := l.p.falseEastingM + rho*math.Sin(theta)
	ym := l.p.falseNorthingM + l.rho0 - rho*math.Cos(theta)
	return xm / l.p.metersPerUnit, ym / l.p.metersPerUnit
}

func (l lambert) inverse(x, y float64) (lon, lat float64) {
	xm := x*l.p.metersPerUnit - l.p.falseEastingM
	ym := l.rho0 - (y*l.p.metersPerUnit - l.p.falseNorthingM)

	rho := math.Hypot(xm, ym)
	if l.n < 0 {
		rho = -rho
		xm, ym = -xm, -ym
	}
	theta := math.Atan2(xm, ym)

	t := math.Pow(rho/(grs80A*l.f), 1/l.n)
	lon = deg(theta/l.n + rad(l.p.lon0))

	// Iterate the conformal latitude inversion; converges in a few rounds.
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := l.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), l.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return lon, deg(phi)
}

// lccM is Snyder's m(phi) = cos(phi)/sqrt(1 - e^2 sin^2 phi).
func lccM(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

// lccT is Snyder's t(phi) for the conformal projection family.
func lccT(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
