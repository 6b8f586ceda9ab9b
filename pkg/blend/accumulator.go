package blend

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/tiling"
)

// finalizeEps floors the per-pixel weight denominator so pixels never
// covered by any tile finalize to 0 instead of NaN.
const finalizeEps = 1e-6

// ProbabilityMap is a full-resolution per-pixel probability raster in
// row-major order, values in [0, 1].
type ProbabilityMap struct {
	Height int
	Width  int
	Data   []float64
}

// At returns the probability at row x, column y.
func (m ProbabilityMap) At(x, y int) float64 {
	return m.Data[x*m.Width+y]
}

// Accumulator folds a stream of weighted tile predictions into the
// running sum and weight-total buffers of one reconstruction. The
// buffers are owned exclusively by a single reconstruction call; when
// tiles are produced by parallel workers, AddTile calls must be
// serialized because overlapping tiles write the same pixels.
type Accumulator struct {
	height  int
	width   int
	sum     []float64
	weight  []float64
	scratch []float64
	tiles   int
}

// NewAccumulator returns zeroed buffers for a target image.
func NewAccumulator(height, width int) *Accumulator {
	return &Accumulator{
		height: height,
		width:  width,
		sum:    make([]float64, height*width),
		weight: make([]float64, height*width),
	}
}

// AddTile blends one prediction into the map: elementwise
// sum += pred*kernel and weight += kernel over the rectangle. The
// prediction and kernel must both match the rectangle exactly.
func (a *Accumulator) AddTile(r models.TileRect, pred []float64, k Kernel) error {
	if !r.Within(a.height, a.width) {
		return fmt.Errorf("blend: %w: %v in %dx%d", tiling.ErrInvalidRegion, r, a.height, a.width)
	}
	size := k.Size
	if r.Height() != size || r.Width() != size {
		return fmt.Errorf("blend: tile %v does not match kernel size %d", r, size)
	}
	if len(pred) != size*size {
		return fmt.Errorf("blend: prediction has %d values, want %d", len(pred), size*size)
	}

	if len(a.scratch) < size {
		a.scratch = make([]float64, size)
	}
	for i := 0; i < size; i++ {
		off := (r.X0+i)*a.width + r.Y0
		kRow := k.W[i*size : (i+1)*size]
		pRow := pred[i*size : (i+1)*size]
		row := a.scratch[:size]
		floats.MulTo(row, pRow, kRow)
		floats.Add(a.sum[off:off+size], row)
		floats.Add(a.weight[off:off+size], kRow)
	}
	a.tiles++
	return nil
}

// Tiles reports how many tiles have been blended so far.
func (a *Accumulator) Tiles() int {
	return a.tiles
}

// Finalize divides the running sum by the accumulated weights. The
// denominator is floored at a small epsilon, so uncovered pixels come
// out as zero probability. The accumulator must have seen every
// planned tile first, otherwise the weight totals are inconsistent.
func (a *Accumulator) Finalize() ProbabilityMap {
	out := make([]float64, len(a.sum))
	for i, s := range a.sum {
		w := a.weight[i]
		if w < finalizeEps {
			w = finalizeEps
		}
		out[i] = s / w
	}
	return ProbabilityMap{Height: a.height, Width: a.width, Data: out}
}
