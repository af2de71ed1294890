package ops

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// Unit is a linear distance unit accepted by Buffer.
type Unit string

const (
	UnitMiles  Unit = "miles"
	UnitFeet   Unit = "feet"
	UnitMeters Unit = "meters"
)

var unitMeters = map[Unit]float64{
	UnitMiles:  1609.344,
	UnitFeet:   1200.0 / 3937.0,
	UnitMeters: 1,
}

// circleSegments is the number of chord segments approximating a full circle.
const circleSegments = 64

// Buffer replaces every geometry with its dilation by the given distance.
// The table must carry a projected CRS; buffering in a geographic CRS would
// dilate by degrees and is refused. The distance is normalized to the CRS's
// native linear unit before expansion.
func Buffer(t *geotable.Table, distance float64, unit Unit) (*geotable.Table, error) {
	if distance <= 0 {
		return nil, eris.Errorf("ops: buffer distance must be positive, got %g", distance)
	}
	um, ok := unitMeters[unit]
	if !ok {
		return nil, eris.Errorf("ops: unknown distance unit %q", unit)
	}
	def, err := crs.Lookup(t.EPSG())
	if err != nil {
		return nil, err
	}
	if def.Geographic {
		return nil, eris.Errorf("ops: buffer requires a projected CRS, table is EPSG:%d (geographic); transform first", t.EPSG())
	}
	mpu, err := def.MetersPerUnit()
	if err != nil {
		return nil, err
	}
	radius := distance * um / mpu

	out := t.Empty()
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		g, err := bufferGeom(row.Geom, radius, t.EPSG())
		if err != nil {
			return nil, eris.Wrapf(err, "ops: buffer row %d", i)
		}
		out.MustAppend(geotable.Row{Geom: g, Attrs: row.Attrs})
	}
	return out, nil
}

func bufferGeom(g geom.T, radius float64, srid int) (geom.T, error) {
	switch s := g.(type) {
	case *geom.Point:
		return circle(s.X(), s.Y(), radius, srid), nil

	case *geom.MultiPoint:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		coords := s.FlatCoords()
		for i := 0; i+1 < len(coords); i += s.Stride() {
			c := circle(coords[i], coords[i+1], radius, srid).(*geom.Polygon)
			if err := mp.Push(c); err != nil {
				return nil, eris.Wrap(err, "ops: push point buffer")
			}
		}
		return mp, nil

	case *geom.Polygon:
		ring := offsetRing(exteriorRing(s), radius)
		p := ringToPolygon(ring, srid)
		if p == nil {
			return nil, eris.New("ops: degenerate polygon buffer")
		}
		return p, nil

	case *geom.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		for i := 0; i < s.NumPolygons(); i++ {
			ring := offsetRing(exteriorRing(s.Polygon(i)), radius)
			p := ringToPolygon(ring, srid)
			if p == nil {
				continue
			}
			if err := mp.Push(p.(*geom.Polygon)); err != nil {
				return nil, eris.Wrap(err, "ops: push polygon buffer")
			}
		}
		if mp.NumPolygons() == 0 {
			return nil, eris.New("ops: degenerate multipolygon buffer")
		}
		return mp, nil

	default:
		return nil, eris.Errorf("ops: buffer unsupported geometry %T", g)
	}
}

// circle builds a closed regular polygon approximating a circle.
func circle(cx, cy, r float64, srid int) geom.T {
	flat := make([]float64, 0, (circleSegments+1)*2)
	for i := 0; i <= circleSegments; i++ {
		theta := 2 * math.Pi * float64(i%circleSegments) / circleSegments
		flat = append(flat, cx+r*math.Cos(theta), cy+r*math.Sin(theta))
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(srid)
}

// offsetRing dilates a ring outward by r using per-edge normal offsets with
// round joins at the vertices. Exact for convex rings; concave rings may
// produce self-touching joins, which downstream containment tests tolerate.
func offsetRing(ring []float64, r float64) []float64 {
	ring = open(ccw(ring))
	n := len(ring) / 2
	if n < 3 {
		return nil
	}

	var out []float64
	for i := 0; i < n; i++ {
		x0, y0 := ring[2*i], ring[2*i+1]
		x1, y1 := ring[2*((i+1)%n)], ring[2*((i+1)%n)+1]
		x2, y2 := ring[2*((i+2)%n)], ring[2*((i+2)%n)+1]

		// Outward normal of the current edge; for a CCW ring the interior is
		// to the left of travel.
		nx0, ny0 := normal(x0, y0, x1, y1)
		nx1, ny1 := normal(x1, y1, x2, y2)

		out = append(out, x0+r*nx0, y0+r*ny0, x1+r*nx0, y1+r*ny0)

		// Round join at the shared vertex from the current edge normal to the
		// next one.
		a0 := math.Atan2(ny0, nx0)
		a1 := math.Atan2(ny1, nx1)
		delta := a1 - a0
		for delta < 0 {
			delta += 2 * math.Pi
		}
		if delta > 0 && delta < math.Pi {
			steps := int(math.Ceil(delta / (2 * math.Pi / circleSegments)))
			for k := 1; k < steps; k++ {
				theta := a0 + delta*float64(k)/float64(steps)
				out = append(out, x1+r*math.Cos(theta), y1+r*math.Sin(theta))
			}
		}
	}
	return out
}

func normal(ax, ay, bx, by float64) (float64, float64) {
	dx, dy := bx-ax, by-ay
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0, 0
	}
	return dy / l, -dx / l
}
