package blend

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// identityPredictor reads the red channel back out as the foreground
// probability, so reconstruction should reproduce the input image.
type identityPredictor struct {
	classes int
}

func (p *identityPredictor) NumClasses() int {
	return p.classes
}

func (p *identityPredictor) InferBatch(tiles []*image.NRGBA) ([][]float64, error) {
	out := make([][]float64, len(tiles))
	for i, tile := range tiles {
		b := tile.Bounds()
		h, w := b.Dy(), b.Dx()
		plane := make([]float64, h*w)
		for x := 0; x < h; x++ {
			for y := 0; y < w; y++ {
				plane[x*w+y] = float64(tile.NRGBAAt(b.Min.X+y, b.Min.Y+x).R) / 255
			}
		}
		if p.classes > 1 {
			// Pad a background plane behind the foreground one.
			plane = append(plane, make([]float64, h*w)...)
		}
		out[i] = plane
	}
	return out, nil
}

func constantImage(id string, height, width int, gray uint8) *models.WholeImage {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}
	return models.NewWholeImage(id, img)
}

// TestReconstructionIdentity verifies that an identity model over a
// uniform image recovers the uniform value everywhere, for several
// overlap factors and with TTA enabled.
func TestReconstructionIdentity(t *testing.T) {
	const gray = 128
	want := float64(gray) / 255
	img := constantImage("uniform", 50, 50, gray)

	for _, overlap := range []float64{1, 2} {
		rc := NewReconstructor(Params{
			TileSize:      16,
			OverlapFactor: overlap,
			ReduceFactor:  1,
			BatchSize:     4,
			TTA:           true,
			Kernel:        DefaultKernelParams(),
		}, &identityPredictor{classes: 1}, zerolog.Nop())

		m, err := rc.PredictWholeImage(img)
		if err != nil {
			t.Fatalf("overlap %.0f: PredictWholeImage failed: %v", overlap, err)
		}
		if m.Height != 50 || m.Width != 50 {
			t.Fatalf("map is %dx%d, want 50x50", m.Height, m.Width)
		}
		for x := 0; x < m.Height; x++ {
			for y := 0; y < m.Width; y++ {
				if math.Abs(m.At(x, y)-want) > 1e-9 {
					t.Fatalf("overlap %.0f: pixel (%d, %d) = %f, want %f",
						overlap, x, y, m.At(x, y), want)
				}
			}
		}
	}
}

// TestReconstructionReduceFactor verifies the downscale/upscale round
// trip through the model resolution on a uniform image.
func TestReconstructionReduceFactor(t *testing.T) {
	const gray = 200
	want := float64(gray) / 255
	img := constantImage("uniform", 64, 64, gray)

	rc := NewReconstructor(Params{
		TileSize:      16,
		OverlapFactor: 2,
		ReduceFactor:  2,
		BatchSize:     8,
		Kernel:        DefaultKernelParams(),
	}, &identityPredictor{classes: 1}, zerolog.Nop())

	m, err := rc.PredictWholeImage(img)
	if err != nil {
		t.Fatalf("PredictWholeImage failed: %v", err)
	}
	for x := 0; x < m.Height; x++ {
		for y := 0; y < m.Width; y++ {
			if math.Abs(m.At(x, y)-want) > 1e-6 {
				t.Fatalf("pixel (%d, %d) = %f, want %f", x, y, m.At(x, y), want)
			}
		}
	}
}

// TestForegroundPlaneSelection verifies that two-class predictions use
// the first plane as the foreground probability.
func TestForegroundPlaneSelection(t *testing.T) {
	const gray = 64
	want := float64(gray) / 255
	img := constantImage("uniform", 32, 32, gray)

	rc := NewReconstructor(Params{
		TileSize:      16,
		OverlapFactor: 1,
		ReduceFactor:  1,
		BatchSize:     4,
		Kernel:        DefaultKernelParams(),
	}, &identityPredictor{classes: 2}, zerolog.Nop())

	m, err := rc.PredictWholeImage(img)
	if err != nil {
		t.Fatalf("PredictWholeImage failed: %v", err)
	}
	if got := m.At(16, 16); math.Abs(got-want) > 1e-9 {
		t.Errorf("foreground probability %f, want %f", got, want)
	}
}
