package rle

import (
	"testing"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// TestDecodeColumnMajor pins the column-major, 1-indexed run layout on
// a 2x3 mask.
func TestDecodeColumnMajor(t *testing.T) {
	// Flattened order walks rows within a column first:
	// p=0 -> (0,0), p=1 -> (1,0), p=2 -> (0,1), ...
	mask, err := Decode("1 2 5 1", 2, 3)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := map[[2]int]bool{
		{0, 0}: true,
		{1, 0}: true,
		{0, 2}: true,
	}
	for x := 0; x < 2; x++ {
		for y := 0; y < 3; y++ {
			if got := mask.At(x, y); got != want[[2]int{x, y}] {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want[[2]int{x, y}])
			}
		}
	}
	if mask.PositiveCount() != 3 {
		t.Errorf("PositiveCount() = %d, want 3", mask.PositiveCount())
	}
}

// TestDecodeEmpty verifies that an empty encoding yields an all-negative
// mask of the requested dimensions.
func TestDecodeEmpty(t *testing.T) {
	mask, err := Decode("", 4, 5)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if mask.Height != 4 || mask.Width != 5 {
		t.Fatalf("mask is %dx%d, want 4x5", mask.Height, mask.Width)
	}
	if mask.PositiveCount() != 0 {
		t.Errorf("PositiveCount() = %d, want 0", mask.PositiveCount())
	}
}

// TestEncodeRoundTrip verifies that Encode inverts Decode on a mask
// with multiple runs.
func TestEncodeRoundTrip(t *testing.T) {
	const enc = "1 3 8 2 15 1"
	mask, err := Decode(enc, 4, 4)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := Encode(mask); got != enc {
		t.Errorf("Encode() = %q, want %q", got, enc)
	}
}

// TestEncodeEmptyMask verifies that an all-negative mask encodes to the
// empty string.
func TestEncodeEmptyMask(t *testing.T) {
	if got := Encode(models.NewMask(3, 3)); got != "" {
		t.Errorf("Encode() = %q, want empty", got)
	}
}

// TestDecodeRejectsMalformedInput verifies the validation paths.
func TestDecodeRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name     string
		encoding string
	}{
		{"odd tokens", "1 2 3"},
		{"non-numeric start", "x 2"},
		{"non-numeric length", "1 y"},
		{"zero start", "0 2"},
		{"negative length", "1 -1"},
		{"run past the end", "6 2"},
	}
	for _, tc := range cases {
		if _, err := Decode(tc.encoding, 2, 3); err == nil {
			t.Errorf("%s: expected error for %q", tc.name, tc.encoding)
		}
	}
}
