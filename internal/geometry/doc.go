// Package geometry implements the 2D primitives of the floor plan.
//
// An Area is a tagged union over a point, a segment and a rectangle. Overlap is
// defined for every pair of kinds, is symmetric, and treats geometries closer
// than DistLimit as touching so that pixel rounding on the floor plan does not
// split a sensor from the zone drawn around it.
package geometry
