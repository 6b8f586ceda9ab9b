package blend

import (
	"testing"
)

// TestKernelBounds verifies that every kernel entry lies in [1e-3, 1]
// and that the center weight equals 1.
func TestKernelBounds(t *testing.T) {
	for _, size := range []int{8, 16, 256} {
		k := BuildKernel(size, DefaultKernelParams())

		if len(k.W) != size*size {
			t.Fatalf("size %d: kernel has %d entries, want %d", size, len(k.W), size*size)
		}
		for i, v := range k.W {
			if v < 1e-3 || v > 1 {
				t.Errorf("size %d: entry %d = %f outside [1e-3, 1]", size, i, v)
			}
		}
		if center := k.At(size/2, size/2); center != 1 {
			t.Errorf("size %d: center weight %f, want 1", size, center)
		}
	}
}

// TestKernelSymmetry verifies symmetry under horizontal, vertical and
// diagonal mirroring.
func TestKernelSymmetry(t *testing.T) {
	size := 32
	k := BuildKernel(size, DefaultKernelParams())

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			if k.At(x, y) != k.At(size-1-x, y) {
				t.Fatalf("vertical mirror broken at (%d, %d)", x, y)
			}
			if k.At(x, y) != k.At(x, size-1-y) {
				t.Fatalf("horizontal mirror broken at (%d, %d)", x, y)
			}
			if k.At(x, y) != k.At(y, x) {
				t.Fatalf("diagonal mirror broken at (%d, %d)", x, y)
			}
		}
	}
}

// TestKernelBorderTaper verifies that weight decays from the interior
// toward the tile border.
func TestKernelBorderTaper(t *testing.T) {
	size := 32
	k := BuildKernel(size, DefaultKernelParams())

	for d := 1; d < size/2; d++ {
		if k.At(d, d) < k.At(d-1, d-1) {
			t.Errorf("weight at depth %d (%f) below depth %d (%f)",
				d, k.At(d, d), d-1, k.At(d-1, d-1))
		}
	}
	if k.At(0, 0) >= k.At(size/2, size/2) {
		t.Errorf("corner weight %f not below center weight %f", k.At(0, 0), k.At(size/2, size/2))
	}
}

// TestKernelAlphaPlateau verifies that alpha below 1 saturates the
// interior into a flat plateau.
func TestKernelAlphaPlateau(t *testing.T) {
	size := 32
	p := DefaultKernelParams()
	p.Alpha = 0.5
	k := BuildKernel(size, p)

	plateau := 0
	for _, v := range k.W {
		if v == 1 {
			plateau++
		}
	}
	// More than the center alone must saturate.
	if plateau <= 4 {
		t.Errorf("expected a saturated interior plateau, got %d pixels at 1", plateau)
	}
	for i, v := range k.W {
		if v < 1e-3 || v > 1 {
			t.Errorf("entry %d = %f outside [1e-3, 1] after alpha rescale", i, v)
		}
	}
}
