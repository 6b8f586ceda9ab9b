package geometry

import (
	"math"
	"sort"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// ConvexHull computes the convex hull of a set of points using Graham
// scan. Returns the hull vertices in counter-clockwise order.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return points
	}

	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Pivot: lowest X, leftmost Y on ties.
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].X < pts[lowest].X ||
			(pts[i].X == pts[lowest].X && pts[i].Y < pts[lowest].Y) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		c := cross(pivot, rest[i], rest[j])
		if c != 0 {
			return c > 0
		}
		return distSq(pivot, rest[i]) < distSq(pivot, rest[j])
	})

	hull := []Point2D{pivot}
	for _, p := range rest {
		for len(hull) > 1 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// HullMask rasterizes the convex hull of the positive region of a mask
// into a new mask of the same dimensions. Every positive pixel of the
// input is positive in the output.
func HullMask(mask *models.Mask) *models.Mask {
	out := models.NewMask(mask.Height, mask.Width)
	copy(out.Data, mask.Data)

	points := boundaryPoints(mask)
	hull := ConvexHull(points)
	if len(hull) < 3 {
		return out
	}

	minX, maxX := hull[0].X, hull[0].X
	for _, p := range hull {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}

	for x := int(math.Ceil(minX)); x <= int(math.Floor(maxX)); x++ {
		y0, y1, ok := rowSpan(hull, float64(x))
		if !ok {
			continue
		}
		for y := int(math.Ceil(y0)); y <= int(math.Floor(y1)); y++ {
			out.Set(x, y, true)
		}
	}
	return out
}

// boundaryPoints collects, for every row, the first and last positive
// column. These extremes are sufficient to determine the hull and keep
// the point set linear in mask height rather than in positive area.
func boundaryPoints(mask *models.Mask) []Point2D {
	var points []Point2D
	for x := 0; x < mask.Height; x++ {
		row := mask.Data[x*mask.Width : (x+1)*mask.Width]
		first, last := -1, -1
		for y, v := range row {
			if v != 0 {
				if first < 0 {
					first = y
				}
				last = y
			}
		}
		if first < 0 {
			continue
		}
		points = append(points, Point2D{X: float64(x), Y: float64(first)})
		if last != first {
			points = append(points, Point2D{X: float64(x), Y: float64(last)})
		}
	}
	return points
}

// rowSpan intersects the hull polygon with the horizontal line at row x
// and returns the covered column interval.
func rowSpan(hull []Point2D, x float64) (float64, float64, bool) {
	minY := math.Inf(1)
	maxY := math.Inf(-1)
	found := false
	n := len(hull)
	for i := 0; i < n; i++ {
		a := hull[i]
		b := hull[(i+1)%n]
		if a.X == b.X {
			if a.X == x {
				minY = math.Min(minY, math.Min(a.Y, b.Y))
				maxY = math.Max(maxY, math.Max(a.Y, b.Y))
				found = true
			}
			continue
		}
		lo, hi := a, b
		if lo.X > hi.X {
			lo, hi = hi, lo
		}
		if x < lo.X || x > hi.X {
			continue
		}
		t := (x - lo.X) / (hi.X - lo.X)
		y := lo.Y + t*(hi.Y-lo.Y)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
		found = true
	}
	return minY, maxY, found
}
