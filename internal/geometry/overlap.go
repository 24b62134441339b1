package geometry

import "math"

// DistLimit is the distance at or below which two shapes are considered touching.
const DistLimit = 2.0

// Overlap reports whether a and b overlap.
//
// The result is symmetric for every pair of kinds. Points and segments overlap
// when they come within DistLimit of each other. Rectangles are matched
// exactly, edges included. Zero areas overlap nothing.
func Overlap(a, b Area) bool {
	if a.kind > b.kind {
		a, b = b, a
	}

	switch {
	case a.kind == KindPoint && b.kind == KindPoint:
		return distancePointPoint(a.a, b.a) <= DistLimit
	case a.kind == KindPoint && b.kind == KindLine:
		return distancePointSegment(a.a, b.a, b.b) <= DistLimit
	case a.kind == KindPoint && b.kind == KindRect:
		return Rect{UpLeft: b.a, DownRight: b.b}.Contains(a.a)
	case a.kind == KindLine && b.kind == KindLine:
		return segmentsDistance(a.a, a.b, b.a, b.b) <= DistLimit
	case a.kind == KindLine && b.kind == KindRect:
		return segmentIntersectsRect(a.a, a.b, Rect{UpLeft: b.a, DownRight: b.b})
	case a.kind == KindRect && b.kind == KindRect:
		return rectsOverlap(Rect{UpLeft: a.a, DownRight: a.b}, Rect{UpLeft: b.a, DownRight: b.b})
	default:
		return false
	}
}

func distancePointPoint(p, q Coord) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// distancePointSegment measures from p to the closest point of segment s-e.
func distancePointSegment(p, s, e Coord) float64 {
	dx, dy := e.X-s.X, e.Y-s.Y
	if dx == 0 && dy == 0 {
		return distancePointPoint(p, s)
	}

	t := ((p.X-s.X)*dx + (p.Y-s.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	return distancePointPoint(p, Coord{X: s.X + t*dx, Y: s.Y + t*dy})
}

// orientation returns 1 for a counter-clockwise turn a->b->c, -1 for clockwise
// and 0 for collinear points.
func orientation(a, b, c Coord) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)

	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether q lies in the bounding box of p-r.
func onSegment(p, q, r Coord) bool {
	return math.Min(p.X, r.X) <= q.X && q.X <= math.Max(p.X, r.X) &&
		math.Min(p.Y, r.Y) <= q.Y && q.Y <= math.Max(p.Y, r.Y)
}

func segmentsIntersect(p1, p2, q1, q2 Coord) bool {
	o1 := orientation(p1, p2, q1)
	o2 := orientation(p1, p2, q2)
	o3 := orientation(q1, q2, p1)
	o4 := orientation(q1, q2, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear touches.
	return (o1 == 0 && onSegment(p1, q1, p2)) ||
		(o2 == 0 && onSegment(p1, q2, p2)) ||
		(o3 == 0 && onSegment(q1, p1, q2)) ||
		(o4 == 0 && onSegment(q1, p2, q2))
}

func segmentsDistance(a1, a2, b1, b2 Coord) float64 {
	if segmentsIntersect(a1, a2, b1, b2) {
		return 0
	}

	return math.Min(
		math.Min(distancePointSegment(a1, b1, b2), distancePointSegment(a2, b1, b2)),
		math.Min(distancePointSegment(b1, a1, a2), distancePointSegment(b2, a1, a2)),
	)
}

func segmentIntersectsRect(s, e Coord, r Rect) bool {
	if r.Contains(s) || r.Contains(e) {
		return true
	}

	left, down, right, up := r.Bounds()
	edges := [4][2]Coord{
		{{X: left, Y: down}, {X: left, Y: up}},
		{{X: right, Y: down}, {X: right, Y: up}},
		{{X: left, Y: up}, {X: right, Y: up}},
		{{X: left, Y: down}, {X: right, Y: down}},
	}

	for _, edge := range edges {
		if segmentsIntersect(s, e, edge[0], edge[1]) {
			return true
		}
	}

	return false
}

func rectsOverlap(r1, r2 Rect) bool {
	left1, down1, right1, up1 := r1.Bounds()
	left2, down2, right2, up2 := r2.Bounds()

	return !(right1 < left2 || right2 < left1 || up1 < down2 || up2 < down1)
}
