// Package rle implements the run-length encoding used to ship
// segmentation masks in dataset manifests. Runs are encoded over a
// column-major, 1-indexed flattening of the mask as space-separated
// "start length" pairs.
package rle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// Decode expands an encoding into a binary mask of the given
// dimensions. An empty encoding yields an all-negative mask.
func Decode(encoding string, height, width int) (*models.Mask, error) {
	mask := models.NewMask(height, width)
	fields := strings.Fields(encoding)
	if len(fields) == 0 {
		return mask, nil
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("rle: odd number of tokens (%d)", len(fields))
	}

	n := height * width
	for i := 0; i < len(fields); i += 2 {
		start, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("rle: bad run start %q: %w", fields[i], err)
		}
		length, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("rle: bad run length %q: %w", fields[i+1], err)
		}
		if start < 1 || length < 0 || start-1+length > n {
			return nil, fmt.Errorf("rle: run %d+%d outside %dx%d mask", start, length, height, width)
		}
		for p := start - 1; p < start-1+length; p++ {
			// Column-major: p walks down columns first.
			x := p % height
			y := p / height
			mask.Data[x*width+y] = 1
		}
	}
	return mask, nil
}

// Encode produces the canonical encoding of a mask, inverse of Decode.
func Encode(mask *models.Mask) string {
	var b strings.Builder
	n := mask.Height * mask.Width
	runStart := -1
	runLen := 0

	flush := func() {
		if runLen == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(runStart + 1))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(runLen))
		runLen = 0
	}

	for p := 0; p < n; p++ {
		x := p % mask.Height
		y := p / mask.Height
		if mask.Data[x*mask.Width+y] != 0 {
			if runLen == 0 {
				runStart = p
			}
			runLen++
		} else {
			flush()
		}
	}
	flush()
	return b.String()
}
