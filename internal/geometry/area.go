package geometry

import "fmt"

// Kind tags the concrete shape stored in an Area.
type Kind uint8

const (
	// KindNone marks the zero Area: a sensor without a location.
	KindNone Kind = iota
	// KindPoint is a single coordinate.
	KindPoint
	// KindLine is a segment between two coordinates.
	KindLine
	// KindRect is a rectangle given by two opposite corners.
	KindRect
)

// String returns the kind name used in logs and storage.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindRect:
		return "rect"
	default:
		return "none"
	}
}

// Coord is a floor-plan coordinate.
type Coord struct {
	X float64
	Y float64
}

// Rect is a rectangle given by two corners.
// The corners are not required to be ordered; Bounds normalizes them.
type Rect struct {
	UpLeft    Coord
	DownRight Coord
}

// NewRect builds a rectangle from its edges in up, down, left, right order.
func NewRect(up, down, left, right float64) Rect {
	return Rect{
		UpLeft:    Coord{X: left, Y: up},
		DownRight: Coord{X: right, Y: down},
	}
}

// Bounds returns the normalized left, down, right and up edges.
func (r Rect) Bounds() (left, down, right, up float64) {
	left, right = r.UpLeft.X, r.DownRight.X
	if left > right {
		left, right = right, left
	}

	down, up = r.DownRight.Y, r.UpLeft.Y
	if down > up {
		down, up = up, down
	}

	return left, down, right, up
}

// Contains reports whether c lies inside r, edges included.
func (r Rect) Contains(c Coord) bool {
	left, down, right, up := r.Bounds()

	return left <= c.X && c.X <= right && down <= c.Y && c.Y <= up
}

// Area returns r as an Area.
func (r Rect) Area() Area {
	return Area{kind: KindRect, a: r.UpLeft, b: r.DownRight}
}

// Area is an immutable shape on the floor plan.
// The zero value has KindNone and overlaps nothing.
type Area struct {
	kind Kind
	a    Coord
	b    Coord
}

// NewPoint returns a point area.
func NewPoint(x, y float64) Area {
	return Area{kind: KindPoint, a: Coord{X: x, Y: y}}
}

// NewLine returns a segment area.
func NewLine(start, end Coord) Area {
	return Area{kind: KindLine, a: start, b: end}
}

// Kind returns the shape tag.
func (a Area) Kind() Kind {
	return a.kind
}

// IsZero reports whether a carries no shape.
func (a Area) IsZero() bool {
	return a.kind == KindNone
}

// Point returns the coordinate of a point area.
func (a Area) Point() (Coord, bool) {
	return a.a, a.kind == KindPoint
}

// Line returns the endpoints of a segment area.
func (a Area) Line() (start, end Coord, ok bool) {
	return a.a, a.b, a.kind == KindLine
}

// Rect returns the rectangle of a rect area.
func (a Area) Rect() (Rect, bool) {
	return Rect{UpLeft: a.a, DownRight: a.b}, a.kind == KindRect
}

// Overlaps reports whether a and other overlap. See Overlap.
func (a Area) Overlaps(other Area) bool {
	return Overlap(a, other)
}

// String formats the area for logs.
func (a Area) String() string {
	switch a.kind {
	case KindPoint:
		return fmt.Sprintf("point(%g,%g)", a.a.X, a.a.Y)
	case KindLine:
		return fmt.Sprintf("line(%g,%g -> %g,%g)", a.a.X, a.a.Y, a.b.X, a.b.Y)
	case KindRect:
		return fmt.Sprintf("rect(%g,%g / %g,%g)", a.a.X, a.a.Y, a.b.X, a.b.Y)
	default:
		return "none"
	}
}
