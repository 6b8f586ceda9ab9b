// Package tiling plans the deterministic sliding-window grid of
// overlapping tiles covering a whole image.
//
// Tiles are never padded and never dropped: a starting coordinate whose
// tile would overrun the image is shifted backward so the far edge
// touches the boundary exactly. That guarantees full coverage with no
// out-of-bounds access, at the cost of extra overlap near the edges.
package tiling

import (
	"errors"
	"fmt"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// ErrInvalidRegion marks a rectangle outside the image bounds. The
// planner validates its own output; hitting this error means a caller
// contract violation or a planner bug, never something to clamp over.
var ErrInvalidRegion = errors.New("tiling: rectangle outside image bounds")

// Plan computes the ordered tile rectangles covering an image of the
// given dimensions. Step size is floor(tileSize / overlapFactor);
// candidate starts along each axis are 0, step, 2*step, ... while they
// remain inside the axis. The grid is the cartesian product of the two
// axes, enumerated x-major, y-minor, so identical inputs always yield
// an identical, identically ordered sequence.
func Plan(imageHeight, imageWidth, tileSize int, overlapFactor float64) ([]models.TileRect, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tiling: tile size %d must be positive", tileSize)
	}
	if overlapFactor < 1 {
		return nil, fmt.Errorf("tiling: overlap factor %.3f must be >= 1", overlapFactor)
	}
	if tileSize > imageHeight || tileSize > imageWidth {
		return nil, fmt.Errorf("tiling: %w: tile %d exceeds image %dx%d",
			ErrInvalidRegion, tileSize, imageHeight, imageWidth)
	}

	step := int(float64(tileSize) / overlapFactor)
	if step < 1 {
		step = 1
	}

	xStarts := axisStarts(imageHeight, tileSize, step)
	yStarts := axisStarts(imageWidth, tileSize, step)

	rects := make([]models.TileRect, 0, len(xStarts)*len(yStarts))
	for _, x := range xStarts {
		for _, y := range yStarts {
			r := models.TileRect{X0: x, X1: x + tileSize, Y0: y, Y1: y + tileSize}
			if !r.Within(imageHeight, imageWidth) {
				return nil, fmt.Errorf("tiling: %w: planned %v in %dx%d",
					ErrInvalidRegion, r, imageHeight, imageWidth)
			}
			rects = append(rects, r)
		}
	}
	return rects, nil
}

// axisStarts enumerates the clamped start coordinates along one axis.
func axisStarts(dim, tileSize, step int) []int {
	var starts []int
	for c := 0; c < dim; c += step {
		slack := dim - (c + tileSize)
		if slack > 0 {
			starts = append(starts, c)
		} else {
			// Shift backward so the far edge touches the boundary.
			starts = append(starts, c+slack)
		}
	}
	return starts
}
