package ops

import (
	"github.com/twpayne/go-geom"
)

// exteriorRing returns the flat coordinates of a polygon's outer ring.
func exteriorRing(p *geom.Polygon) []float64 {
	if p.NumLinearRings() == 0 {
		return nil
	}
	return p.LinearRing(0).FlatCoords()
}

// exteriorRings collects the outer rings of a Polygon or MultiPolygon.
func exteriorRings(g geom.T) [][]float64 {
	switch s := g.(type) {
	case *geom.Polygon:
		if r := exteriorRing(s); r != nil {
			return [][]float64{r}
		}
	case *geom.MultiPolygon:
		var out [][]float64
		for i := 0; i < s.NumPolygons(); i++ {
			if r := exteriorRing(s.Polygon(i)); r != nil {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

// interiorRings collects the hole rings of a polygon.
func interiorRings(p *geom.Polygon) [][]float64 {
	var out [][]float64
	for i := 1; i < p.NumLinearRings(); i++ {
		out = append(out, p.LinearRing(i).FlatCoords())
	}
	return out
}

// ringToPolygon wraps a flat ring in a single-ring polygon, closing it if
// needed. Returns nil for degenerate rings (< 3 distinct vertices).
func ringToPolygon(ring []float64, srid int) geom.T {
	if len(ring) < 6 {
		return nil
	}
	n := len(ring)
	if ring[0] != ring[n-2] || ring[1] != ring[n-1] {
		ring = append(ring, ring[0], ring[1])
	}
	p := geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}).SetSRID(srid)
	return p
}

// pointInRing is a ray-casting containment test on a flat coordinate ring.
// Boundary points count as inside.
func pointInRing(x, y float64, ring []float64) bool {
	n := len(ring) / 2
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[2*i], ring[2*i+1]
		xj, yj := ring[2*j], ring[2*j+1]

		// On-segment check keeps boundary points inside.
		if onSegment(x, y, xi, yi, xj, yj) {
			return true
		}

		if (yi > y) != (yj > y) {
			cross := (xj-xi)*(y-yi)/(yj-yi) + xi
			if x < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func onSegment(px, py, ax, ay, bx, by float64) bool {
	const eps = 1e-12
	cross := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	if abs(cross) > eps {
		return false
	}
	dot := (px-ax)*(bx-ax) + (py-ay)*(by-ay)
	if dot < -eps {
		return false
	}
	lenSq := (bx-ax)*(bx-ax) + (by-ay)*(by-ay)
	return dot <= lenSq+eps
}

// pointInGeom tests containment of a point in a Polygon or MultiPolygon,
// honoring holes.
func pointInGeom(x, y float64, g geom.T) bool {
	switch s := g.(type) {
	case *geom.Polygon:
		return pointInPolygon(x, y, s)
	case *geom.MultiPolygon:
		for i := 0; i < s.NumPolygons(); i++ {
			if pointInPolygon(x, y, s.Polygon(i)) {
				return true
			}
		}
	}
	return false
}

func pointInPolygon(x, y float64, p *geom.Polygon) bool {
	ext := exteriorRing(p)
	if ext == nil || !pointInRing(x, y, ext) {
		return false
	}
	for _, hole := range interiorRings(p) {
		if pointInRing(x, y, hole) {
			return false
		}
	}
	return true
}

// signedArea of a flat ring; positive for counterclockwise orientation.
func signedArea(ring []float64) float64 {
	n := len(ring) / 2
	if n < 3 {
		return 0
	}
	var sum float64
	j := n - 1
	for i := 0; i < n; i++ {
		sum += ring[2*j]*ring[2*i+1] - ring[2*i]*ring[2*j+1]
		j = i
	}
	return sum / 2
}

// ccw returns the ring in counterclockwise orientation.
func ccw(ring []float64) []float64 {
	if signedArea(ring) >= 0 {
		return ring
	}
	n := len(ring) / 2
	out := make([]float64, 0, len(ring))
	for i := n - 1; i >= 0; i-- {
		out = append(out, ring[2*i], ring[2*i+1])
	}
	return out
}
