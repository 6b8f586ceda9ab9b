package models

import (
	"fmt"
	"image"
	"image/draw"
)

// TileRect is a half-open rectangle in image-pixel coordinates.
// The X axis indexes rows (height direction) and the Y axis indexes
// columns (width direction), so a rectangle covers pixels
// [X0, X1) x [Y0, Y1).
type TileRect struct {
	// X0, X1 bound the rectangle along the height axis
	X0, X1 int

	// Y0, Y1 bound the rectangle along the width axis
	Y0, Y1 int
}

// NewTileRect builds a square tile rectangle of the given size whose
// top-left corner is at (x0, y0).
func NewTileRect(x0, y0, size int) TileRect {
	return TileRect{X0: x0, X1: x0 + size, Y0: y0, Y1: y0 + size}
}

// Height returns the extent of the rectangle along the row axis.
func (r TileRect) Height() int {
	return r.X1 - r.X0
}

// Width returns the extent of the rectangle along the column axis.
func (r TileRect) Width() int {
	return r.Y1 - r.Y0
}

// Center returns the center pixel of the rectangle.
func (r TileRect) Center() (int, int) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// Within reports whether the rectangle lies entirely inside an image
// with the given height and width.
func (r TileRect) Within(height, width int) bool {
	return r.X0 >= 0 && r.X0 < r.X1 && r.X1 <= height &&
		r.Y0 >= 0 && r.Y0 < r.Y1 && r.Y1 <= width
}

func (r TileRect) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", r.X0, r.X1, r.Y0, r.Y1)
}

// WholeImage is a fully decoded source image. It is immutable once
// loaded and owned by the store for the lifetime of the process.
type WholeImage struct {
	// ID is the image identifier used for store lookups
	ID string

	// Height and Width are the pixel dimensions
	Height int
	Width  int

	// Channels is the number of color channels of the source data
	Channels int

	// Pixels holds the decoded pixel buffer in NRGBA layout
	Pixels *image.NRGBA
}

// NewWholeImage decodes src into an owned NRGBA buffer.
func NewWholeImage(id string, src image.Image) *WholeImage {
	b := src.Bounds()
	buf := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(buf, buf.Bounds(), src, b.Min, draw.Src)
	return &WholeImage{
		ID:       id,
		Height:   b.Dy(),
		Width:    b.Dx(),
		Channels: 3,
		Pixels:   buf,
	}
}

// Area returns the pixel area of the image.
func (w *WholeImage) Area() int {
	return w.Height * w.Width
}

// Crop copies the pixels covered by r into a new tight NRGBA image.
// The rectangle must lie inside the image.
func (w *WholeImage) Crop(r TileRect) (*image.NRGBA, error) {
	if !r.Within(w.Height, w.Width) {
		return nil, fmt.Errorf("crop %v outside image %q (%dx%d)", r, w.ID, w.Height, w.Width)
	}
	out := image.NewNRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	// TileRect X is the row axis, which maps to image Y.
	src := image.Rect(r.Y0, r.X0, r.Y1, r.X1)
	draw.Draw(out, out.Bounds(), w.Pixels, src.Min, draw.Src)
	return out, nil
}

// Mask is a binary raster with the same dimensions as its image.
// A nonzero entry marks a positive pixel.
type Mask struct {
	Height int
	Width  int
	Data   []uint8
}

// NewMask returns an all-negative mask of the given dimensions.
func NewMask(height, width int) *Mask {
	return &Mask{
		Height: height,
		Width:  width,
		Data:   make([]uint8, height*width),
	}
}

// At reports whether the pixel at row x, column y is positive.
// Out-of-bounds reads are negative.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Height || y < 0 || y >= m.Width {
		return false
	}
	return m.Data[x*m.Width+y] != 0
}

// Set marks the pixel at row x, column y.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || x >= m.Height || y < 0 || y >= m.Width {
		return
	}
	if v {
		m.Data[x*m.Width+y] = 1
	} else {
		m.Data[x*m.Width+y] = 0
	}
}

// SumRegion counts the positive pixels inside r. The rectangle is
// clipped to the mask bounds.
func (m *Mask) SumRegion(r TileRect) int {
	x0, x1 := max(r.X0, 0), min(r.X1, m.Height)
	y0, y1 := max(r.Y0, 0), min(r.Y1, m.Width)
	count := 0
	for x := x0; x < x1; x++ {
		row := m.Data[x*m.Width : (x+1)*m.Width]
		for y := y0; y < y1; y++ {
			if row[y] != 0 {
				count++
			}
		}
	}
	return count
}

// PositiveCount counts every positive pixel of the mask.
func (m *Mask) PositiveCount() int {
	count := 0
	for _, v := range m.Data {
		if v != 0 {
			count++
		}
	}
	return count
}

// Crop copies the mask region covered by r into a new mask.
func (m *Mask) Crop(r TileRect) (*Mask, error) {
	if !r.Within(m.Height, m.Width) {
		return nil, fmt.Errorf("mask crop %v outside %dx%d raster", r, m.Height, m.Width)
	}
	out := NewMask(r.Height(), r.Width())
	for x := r.X0; x < r.X1; x++ {
		copy(out.Data[(x-r.X0)*out.Width:], m.Data[x*m.Width+r.Y0:x*m.Width+r.Y1])
	}
	return out, nil
}
