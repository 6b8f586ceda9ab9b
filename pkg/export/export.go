// Package export writes finalized probability maps to disk for
// inspection and submission preparation.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/blend"
)

// ToGray renders a probability map as an 8-bit grayscale image.
func ToGray(m blend.ProbabilityMap) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for x := 0; x < m.Height; x++ {
		for y := 0; y < m.Width; y++ {
			v := math.Max(0, math.Min(1, m.At(x, y)))
			img.SetGray(y, x, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

// WritePNG saves a probability map as a grayscale PNG, creating the
// parent directory if needed.
func WritePNG(m blend.ProbabilityMap, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, ToGray(m)); err != nil {
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	return nil
}

// Threshold binarizes a probability map at t.
func Threshold(m blend.ProbabilityMap, t float64) *models.Mask {
	mask := models.NewMask(m.Height, m.Width)
	for i, v := range m.Data {
		if v > t {
			mask.Data[i] = 1
		}
	}
	return mask
}
