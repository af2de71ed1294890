package ops

// clipPieces intersects a subject ring with a clip ring of any shape,
// returning the intersection as open flat rings. A convex clip ring clips in
// one pass; a concave one is ear-clipped into triangles and the subject is
// clipped against each, so the pieces tile the true intersection.
func clipPieces(subject, clip []float64) [][]float64 {
	clip = open(ccw(clip))
	if len(subject) < 6 || len(clip) < 6 {
		return nil
	}

	if isConvex(clip) {
		if out := clipRing(subject, clip); len(out) >= 6 {
			return [][]float64{out}
		}
		return nil
	}

	var pieces [][]float64
	for _, tri := range triangulate(clip) {
		out := clipRing(subject, tri)
		if len(out) >= 6 && abs(signedArea(out)) > 1e-12 {
			pieces = append(pieces, out)
		}
	}
	return pieces
}

// clipRing clips a subject ring against a convex clip ring using the
// Sutherland-Hodgman algorithm. Both rings may be open or closed and in
// either orientation. The result is an open flat ring, empty when the
// subject lies entirely outside.
func clipRing(subject, clip []float64) []float64 {
	subject = open(subject)
	clip = open(ccw(clip))
	if len(subject) < 6 || len(clip) < 6 {
		return nil
	}

	out := subject
	n := len(clip) / 2
	for i := 0; i < n && len(out) > 0; i++ {
		ax, ay := clip[2*i], clip[2*i+1]
		bx, by := clip[2*((i+1)%n)], clip[2*((i+1)%n)+1]
		out = clipAgainstEdge(out, ax, ay, bx, by)
	}
	if len(out) < 6 {
		return nil
	}
	return out
}

// clipAgainstEdge keeps the part of the ring on the interior (left) side of
// the directed edge a->b of a CCW clip ring.
func clipAgainstEdge(ring []float64, ax, ay, bx, by float64) []float64 {
	n := len(ring) / 2
	var out []float64

	inside := func(x, y float64) bool {
		return (bx-ax)*(y-ay)-(by-ay)*(x-ax) >= 0
	}

	for i := 0; i < n; i++ {
		cx, cy := ring[2*i], ring[2*i+1]
		px, py := ring[2*((i+n-1)%n)], ring[2*((i+n-1)%n)+1]

		curIn := inside(cx, cy)
		prevIn := inside(px, py)

		if curIn {
			if !prevIn {
				ix, iy := intersectLines(px, py, cx, cy, ax, ay, bx, by)
				out = append(out, ix, iy)
			}
			out = append(out, cx, cy)
		} else if prevIn {
			ix, iy := intersectLines(px, py, cx, cy, ax, ay, bx, by)
			out = append(out, ix, iy)
		}
	}
	return out
}

// intersectLines returns the intersection of segment p->c with the infinite
// line through a->b.
func intersectLines(px, py, cx, cy, ax, ay, bx, by float64) (float64, float64) {
	dx, dy := cx-px, cy-py
	ex, ey := bx-ax, by-ay
	denom := dx*ey - dy*ex
	if denom == 0 {
		return cx, cy
	}
	t := ((ax-px)*ey - (ay-py)*ex) / denom
	return px + t*dx, py + t*dy
}

// open strips a closing vertex that duplicates the first one.
func open(ring []float64) []float64 {
	n := len(ring)
	if n >= 4 && ring[0] == ring[n-2] && ring[1] == ring[n-1] {
		return ring[:n-2]
	}
	return ring
}
