package blend

import (
	"errors"
	"math"
	"testing"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/tiling"
)

// TestAccumulatorIdentity verifies that blending constant predictions
// over a full tile plan recovers the constant everywhere, regardless
// of overlap factor.
func TestAccumulatorIdentity(t *testing.T) {
	const v = 0.37
	height, width, tile := 40, 56, 16

	for _, overlap := range []float64{1, 1.5, 2, 3} {
		rects, err := tiling.Plan(height, width, tile, overlap)
		if err != nil {
			t.Fatalf("Plan failed: %v", err)
		}

		kernel := BuildKernel(tile, DefaultKernelParams())
		acc := NewAccumulator(height, width)

		pred := make([]float64, tile*tile)
		for i := range pred {
			pred[i] = v
		}
		for _, r := range rects {
			if err := acc.AddTile(r, pred, kernel); err != nil {
				t.Fatalf("AddTile(%v) failed: %v", r, err)
			}
		}
		if acc.Tiles() != len(rects) {
			t.Fatalf("accumulated %d tiles, want %d", acc.Tiles(), len(rects))
		}

		m := acc.Finalize()
		for x := 0; x < height; x++ {
			for y := 0; y < width; y++ {
				if math.Abs(m.At(x, y)-v) > 1e-9 {
					t.Fatalf("overlap %.1f: pixel (%d, %d) = %f, want %f",
						overlap, x, y, m.At(x, y), v)
				}
			}
		}
	}
}

// TestAccumulatorUncoveredPixels verifies that pixels no tile ever
// touched finalize to zero instead of dividing by zero.
func TestAccumulatorUncoveredPixels(t *testing.T) {
	tile := 8
	kernel := BuildKernel(tile, DefaultKernelParams())
	acc := NewAccumulator(32, 32)

	pred := make([]float64, tile*tile)
	for i := range pred {
		pred[i] = 1
	}
	if err := acc.AddTile(models.NewTileRect(0, 0, tile), pred, kernel); err != nil {
		t.Fatalf("AddTile failed: %v", err)
	}

	m := acc.Finalize()
	if got := m.At(0, 0); math.Abs(got-1) > 1e-9 {
		t.Errorf("covered pixel = %f, want 1", got)
	}
	if got := m.At(31, 31); got != 0 {
		t.Errorf("uncovered pixel = %f, want 0", got)
	}
	if math.IsNaN(m.At(31, 31)) {
		t.Error("uncovered pixel produced NaN")
	}
}

// TestAccumulatorRejectsBadTiles verifies fail-fast validation of
// rectangles and prediction shapes.
func TestAccumulatorRejectsBadTiles(t *testing.T) {
	tile := 8
	kernel := BuildKernel(tile, DefaultKernelParams())
	acc := NewAccumulator(16, 16)
	pred := make([]float64, tile*tile)

	err := acc.AddTile(models.NewTileRect(12, 12, tile), pred, kernel)
	if err == nil {
		t.Fatal("expected error for out-of-bounds rectangle")
	}
	if !errors.Is(err, tiling.ErrInvalidRegion) {
		t.Errorf("expected ErrInvalidRegion, got %v", err)
	}

	if err := acc.AddTile(models.NewTileRect(0, 0, tile), pred[:10], kernel); err == nil {
		t.Fatal("expected error for short prediction")
	}

	if err := acc.AddTile(models.TileRect{X0: 0, X1: 4, Y0: 0, Y1: 8}, pred, kernel); err == nil {
		t.Fatal("expected error for rectangle not matching kernel size")
	}
}

// TestAccumulatorOverlapWeighting verifies that overlapping tiles with
// different predictions blend toward the weighted average rather than
// letting the later tile overwrite the earlier one.
func TestAccumulatorOverlapWeighting(t *testing.T) {
	tile := 8
	kernel := BuildKernel(tile, DefaultKernelParams())
	acc := NewAccumulator(8, 12)

	low := make([]float64, tile*tile)
	high := make([]float64, tile*tile)
	for i := range high {
		high[i] = 1
	}

	if err := acc.AddTile(models.NewTileRect(0, 0, tile), low, kernel); err != nil {
		t.Fatalf("AddTile failed: %v", err)
	}
	if err := acc.AddTile(models.NewTileRect(0, 4, tile), high, kernel); err != nil {
		t.Fatalf("AddTile failed: %v", err)
	}

	m := acc.Finalize()
	for x := 0; x < 8; x++ {
		for y := 4; y < 8; y++ {
			got := m.At(x, y)
			if got <= 0 || got >= 1 {
				t.Errorf("overlap pixel (%d, %d) = %f, want strictly between 0 and 1", x, y, got)
			}
		}
	}
}
