package ops

// isConvex reports whether an open CCW ring has no reflex vertices.
func isConvex(ring []float64) bool {
	n := len(ring) / 2
	for i := 0; i < n; i++ {
		ax, ay := ring[2*i], ring[2*i+1]
		bx, by := ring[2*((i+1)%n)], ring[2*((i+1)%n)+1]
		cx, cy := ring[2*((i+2)%n)], ring[2*((i+2)%n)+1]
		if (bx-ax)*(cy-ay)-(by-ay)*(cx-ax) < 0 {
			return false
		}
	}
	return true
}

// triangulate ear-clips a simple ring into triangles, returned as open flat
// rings of three vertices each. The triangles tile the ring's interior
// without overlap, so per-triangle results can be summed or unioned.
func triangulate(ring []float64) [][]float64 {
	ring = open(ccw(ring))
	n := len(ring) / 2
	if n < 3 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var tris [][]float64
	for len(idx) > 3 {
		m := len(idx)
		earAt := -1
		for i := 0; i < m; i++ {
			if isEar(ring, idx, idx[(i+m-1)%m], idx[i], idx[(i+1)%m]) {
				earAt = i
				break
			}
		}
		if earAt < 0 {
			// Numerically degenerate remainder; close out with a fan.
			for i := 1; i+1 < len(idx); i++ {
				tris = append(tris, triangleRing(ring, idx[0], idx[i], idx[i+1]))
			}
			return tris
		}
		m = len(idx)
		tris = append(tris, triangleRing(ring, idx[(earAt+m-1)%m], idx[earAt], idx[(earAt+1)%m]))
		idx = append(idx[:earAt], idx[earAt+1:]...)
	}
	return append(tris, triangleRing(ring, idx[0], idx[1], idx[2]))
}

func triangleRing(ring []float64, a, b, c int) []float64 {
	return []float64{
		ring[2*a], ring[2*a+1],
		ring[2*b], ring[2*b+1],
		ring[2*c], ring[2*c+1],
	}
}

// isEar reports whether the vertex c between p and nx is a convex ear: the
// triangle (p, c, nx) is positively oriented and contains no other remaining
// vertex.
func isEar(ring []float64, idx []int, p, c, nx int) bool {
	ax, ay := ring[2*p], ring[2*p+1]
	bx, by := ring[2*c], ring[2*c+1]
	cx, cy := ring[2*nx], ring[2*nx+1]
	if (bx-ax)*(cy-ay)-(by-ay)*(cx-ax) <= 0 {
		return false
	}
	for _, v := range idx {
		if v == p || v == c || v == nx {
			continue
		}
		if pointInTriangle(ring[2*v], ring[2*v+1], ax, ay, bx, by, cx, cy) {
			return false
		}
	}
	return true
}

// pointInTriangle is a strict interior test on a CCW triangle; boundary
// points do not block an ear.
func pointInTriangle(px, py, ax, ay, bx, by, cx, cy float64) bool {
	d1 := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	d2 := (cx-bx)*(py-by) - (cy-by)*(px-bx)
	d3 := (ax-cx)*(py-cy) - (ay-cy)*(px-cx)
	return d1 > 0 && d2 > 0 && d3 > 0
}
