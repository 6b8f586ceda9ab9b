// Package blend turns per-tile model predictions into a single
// seam-free probability map over the whole image. Border artifacts are
// suppressed by weighting each tile with a kernel that peaks in the
// tile interior and tapers toward the edges, then normalizing the
// weighted running sum per pixel.
package blend

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// KernelParams controls the shape of the tile weighting kernel.
type KernelParams struct {
	// Sigma controls how sharply weight falls off toward tile edges.
	Sigma float64

	// Alpha saturates values above it to 1, creating a flat
	// high-confidence plateau in the tile interior.
	Alpha float64

	// Eps keeps the rescale into [eps, 1] well defined.
	Eps float64
}

// DefaultKernelParams returns the parameters used for inference.
func DefaultKernelParams() KernelParams {
	return KernelParams{Sigma: 1, Alpha: 1, Eps: 1e-6}
}

// Kernel is a square weight field over one tile. Entries lie in
// [1e-3, 1] and the field is symmetric under horizontal, vertical and
// diagonal reflection by construction.
type Kernel struct {
	Size int
	W    []float64
}

// At returns the weight at row x, column y.
func (k Kernel) At(x, y int) float64 {
	return k.W[x*k.Size+y]
}

// BuildKernel constructs the tile weighting kernel: a pyramidal
// distance-to-border field normalized to peak at 1, raised to sigma,
// rescaled into [eps, 1], saturated above alpha and clipped to
// [1e-3, 1]. Values are rounded to three decimals so identical inputs
// reproduce bit-identical kernels.
func BuildKernel(size int, p KernelParams) Kernel {
	half := size / 2

	// Distance to the nearest edge along one axis.
	axis := make([]float64, size)
	for i := 0; i < size; i++ {
		var offset int
		if i < half {
			offset = -(half - i)
		} else {
			offset = i - half + 1
		}
		axis[i] = float64(half + 1 - abs(offset))
	}

	w := make([]float64, size*size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			w[x*size+y] = math.Min(axis[x], axis[y])
		}
	}

	floats.Scale(1/floats.Max(w), w)
	for i, v := range w {
		w[i] = math.Min(math.Pow(v, p.Sigma), 1)
	}

	mn, mx := floats.Min(w), floats.Max(w)
	for i, v := range w {
		v = (v - mn + p.Eps) / (mx - mn + p.Eps)
		if v > p.Alpha {
			v = 1
		}
		v /= p.Alpha
		v = math.Min(math.Max(v, 1e-3), 1)
		w[i] = math.Round(v*1000) / 1000
	}

	return Kernel{Size: size, W: w}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
