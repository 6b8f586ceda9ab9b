package blend

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// Flip names a test-time augmentation transform. Every flip is its own
// inverse, so the same function maps a tile into augmented space and a
// prediction back out of it.
type Flip int

const (
	// FlipHorizontal mirrors along the width axis.
	FlipHorizontal Flip = iota

	// FlipVertical mirrors along the height axis.
	FlipVertical

	// FlipBoth mirrors along both axes.
	FlipBoth
)

// DefaultFlips is the augmentation set averaged during inference.
var DefaultFlips = []Flip{FlipHorizontal, FlipVertical, FlipBoth}

// FlipMap returns a flipped copy of a row-major raster.
func FlipMap(data []float64, height, width int, f Flip) []float64 {
	out := make([]float64, len(data))
	for x := 0; x < height; x++ {
		for y := 0; y < width; y++ {
			sx, sy := x, y
			if f == FlipVertical || f == FlipBoth {
				sx = height - 1 - x
			}
			if f == FlipHorizontal || f == FlipBoth {
				sy = width - 1 - y
			}
			out[x*width+y] = data[sx*width+sy]
		}
	}
	return out
}

// FlipImage returns a flipped copy of a tile image.
func FlipImage(img *image.NRGBA, f Flip) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x, y
			if f == FlipHorizontal || f == FlipBoth {
				sx = w - 1 - x
			}
			if f == FlipVertical || f == FlipBoth {
				sy = h - 1 - y
			}
			out.SetNRGBA(x, y, img.NRGBAAt(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return out
}

// MeanPredictions averages several predictions of the same tile into
// one. All inputs must have the same length.
func MeanPredictions(preds [][]float64) []float64 {
	out := append([]float64(nil), preds[0]...)
	for _, p := range preds[1:] {
		floats.Add(out, p)
	}
	floats.Scale(1/float64(len(preds)), out)
	return out
}
