// Package ops implements the geometric operations of the pipeline: crop,
// exact intersection, spatial join, and buffering. Every operation is a pure
// function from input tables to a new table; binary operations require both
// operands to carry the same non-zero CRS tag.
package ops

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// rect is an axis-aligned bounding rectangle in table coordinates.
type rect struct {
	minX, minY, maxX, maxY float64
}

func (r rect) contains(x, y float64) bool {
	return x >= r.minX && x <= r.maxX && y >= r.minY && y <= r.maxY
}

func (r rect) overlaps(o rect) bool {
	return r.minX <= o.maxX && o.minX <= r.maxX && r.minY <= o.maxY && o.minY <= r.maxY
}

// ring returns the rectangle as a closed CCW ring.
func (r rect) ring() []float64 {
	return []float64{
		r.minX, r.minY,
		r.maxX, r.minY,
		r.maxX, r.maxY,
		r.minX, r.maxY,
		r.minX, r.minY,
	}
}

func boundsRect(t *geotable.Table) (rect, error) {
	b := t.Bounds()
	if b == nil {
		return rect{}, eris.New("ops: reference table has no geometries")
	}
	return rect{minX: b.Min(0), minY: b.Min(1), maxX: b.Max(0), maxY: b.Max(1)}, nil
}

func geomRect(g geom.T) rect {
	b := geom.NewBounds(geom.XY)
	b = b.Extend(g)
	return rect{minX: b.Min(0), minY: b.Min(1), maxX: b.Max(0), maxY: b.Max(1)}
}

// Crop returns the subject rows intersecting the reference table's bounding
// rectangle. Points are containment-filtered; polygons are truncated to the
// rectangle. Interior rings are dropped by the rectangular clip.
func Crop(subject, ref *geotable.Table) (*geotable.Table, error) {
	if err := geotable.SameCRS(subject, ref); err != nil {
		return nil, err
	}
	r, err := boundsRect(ref)
	if err != nil {
		return nil, err
	}

	out := subject.Empty()
	for i := 0; i < subject.Len(); i++ {
		row := subject.Row(i)
		g, err := cropGeom(row.Geom, r, subject.EPSG())
		if err != nil {
			return nil, eris.Wrapf(err, "ops: crop row %d", i)
		}
		if g == nil {
			continue
		}
		out.MustAppend(geotable.Row{Geom: g, Attrs: row.Attrs})
	}
	return out, nil
}

func cropGeom(g geom.T, r rect, srid int) (geom.T, error) {
	switch s := g.(type) {
	case *geom.Point:
		if r.contains(s.X(), s.Y()) {
			return s, nil
		}
		return nil, nil

	case *geom.MultiPoint:
		var flat []float64
		coords := s.FlatCoords()
		for i := 0; i+1 < len(coords); i += s.Stride() {
			if r.contains(coords[i], coords[i+1]) {
				flat = append(flat, coords[i], coords[i+1])
			}
		}
		if len(flat) == 0 {
			return nil, nil
		}
		return geom.NewMultiPointFlat(geom.XY, flat).SetSRID(srid), nil

	case *geom.Polygon:
		clipped := clipRing(exteriorRing(s), r.ring())
		return ringToPolygon(clipped, srid), nil

	case *geom.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		for i := 0; i < s.NumPolygons(); i++ {
			clipped := clipRing(exteriorRing(s.Polygon(i)), r.ring())
			if p := ringToPolygon(clipped, srid); p != nil {
				if err := mp.Push(p.(*geom.Polygon)); err != nil {
					return nil, eris.Wrap(err, "ops: push cropped polygon")
				}
			}
		}
		if mp.NumPolygons() == 0 {
			return nil, nil
		}
		return mp, nil

	default:
		return nil, eris.Errorf("ops: crop unsupported geometry %T", g)
	}
}

// Intersect returns the portions of subject geometries strictly within the
// reference geometries. Points are filtered by point-in-polygon containment;
// subject polygons are clipped against each reference polygon. Concave
// reference rings clip piecewise, so the result may carry several polygons
// that tile one contiguous intersection.
func Intersect(subject, ref *geotable.Table) (*geotable.Table, error) {
	if err := geotable.SameCRS(subject, ref); err != nil {
		return nil, err
	}

	out := subject.Empty()
	for i := 0; i < subject.Len(); i++ {
		row := subject.Row(i)
		g, err := intersectGeom(row.Geom, ref, subject.EPSG())
		if err != nil {
			return nil, eris.Wrapf(err, "ops: intersect row %d", i)
		}
		if g == nil {
			continue
		}
		out.MustAppend(geotable.Row{Geom: g, Attrs: row.Attrs})
	}
	return out, nil
}

func intersectGeom(g geom.T, ref *geotable.Table, srid int) (geom.T, error) {
	switch s := g.(type) {
	case *geom.Point:
		for j := 0; j < ref.Len(); j++ {
			if pointInGeom(s.X(), s.Y(), ref.Row(j).Geom) {
				return s, nil
			}
		}
		return nil, nil

	case *geom.Polygon, *geom.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		for _, subjRing := range exteriorRings(g) {
			for j := 0; j < ref.Len(); j++ {
				for _, refRing := range exteriorRings(ref.Row(j).Geom) {
					for _, piece := range clipPieces(subjRing, refRing) {
						if p := ringToPolygon(piece, srid); p != nil {
							if err := mp.Push(p.(*geom.Polygon)); err != nil {
								return nil, eris.Wrap(err, "ops: push clipped polygon")
							}
						}
					}
				}
			}
		}
		if mp.NumPolygons() == 0 {
			return nil, nil
		}
		return mp, nil

	default:
		return nil, eris.Errorf("ops: intersect unsupported geometry %T", g)
	}
}

// SJoin performs an inner spatial join on the intersects predicate: one
// output row per matching left-right pair, keeping the left geometry and
// dropping the right one. Attribute columns are the union of both sides;
// right columns colliding with a left name get a "_right" suffix. Left rows
// with no match are dropped (restore them with the aggregator's zero-fill
// remerge when counting).
func SJoin(left, right *geotable.Table) (*geotable.Table, error) {
	if err := geotable.SameCRS(left, right); err != nil {
		return nil, err
	}

	leftCols := left.Columns()
	taken := make(map[string]bool, len(leftCols))
	for _, c := range leftCols {
		taken[c] = true
	}
	cols := append([]string(nil), leftCols...)
	for _, c := range right.Columns() {
		for taken[c] {
			c += "_right"
		}
		taken[c] = true
		cols = append(cols, c)
	}

	out := geotable.New(cols, left.EPSG())
	for i := 0; i < left.Len(); i++ {
		l := left.Row(i)
		for j := 0; j < right.Len(); j++ {
			r := right.Row(j)
			ok, err := intersects(l.Geom, r.Geom)
			if err != nil {
				return nil, eris.Wrapf(err, "ops: join rows %d x %d", i, j)
			}
			if !ok {
				continue
			}
			attrs := make([]any, 0, len(cols))
			attrs = append(attrs, l.Attrs...)
			attrs = append(attrs, r.Attrs...)
			out.MustAppend(geotable.Row{Geom: l.Geom, Attrs: attrs})
		}
	}
	return out, nil
}

// intersects is the join predicate over the geometry combinations the
// pipeline produces.
func intersects(a, b geom.T) (bool, error) {
	if a == nil || b == nil {
		return false, eris.New("ops: intersects on nil geometry")
	}

	if pa, ok := a.(*geom.Point); ok {
		if pb, ok2 := b.(*geom.Point); ok2 {
			const eps = 1e-9
			return abs(pa.X()-pb.X()) < eps && abs(pa.Y()-pb.Y()) < eps, nil
		}
		return pointInGeom(pa.X(), pa.Y(), b), nil
	}
	if pb, ok := b.(*geom.Point); ok {
		return pointInGeom(pb.X(), pb.Y(), a), nil
	}

	ra, rb := geomRect(a), geomRect(b)
	if !ra.overlaps(rb) {
		return false, nil
	}
	for _, ar := range exteriorRings(a) {
		for _, br := range exteriorRings(b) {
			if ringsIntersect(ar, br) {
				return true, nil
			}
		}
	}
	return false, nil
}

// ringsIntersect tests two exterior rings for overlap: mutual vertex
// containment first, then a clip for the edge-crossing-only case.
func ringsIntersect(a, b []float64) bool {
	for i := 0; i+1 < len(a); i += 2 {
		if pointInRing(a[i], a[i+1], b) {
			return true
		}
	}
	for i := 0; i+1 < len(b); i += 2 {
		if pointInRing(b[i], b[i+1], a) {
			return true
		}
	}
	return len(clipPieces(a, b)) > 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
