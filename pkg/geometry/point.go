// Package geometry provides the planar primitives needed to derive
// convex-hull masks from labeled rasters.
package geometry

// Point2D is a point in mask coordinates: X indexes rows, Y columns.
type Point2D struct {
	X float64
	Y float64
}

// cross computes the cross product of vectors OA and OB.
func cross(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
