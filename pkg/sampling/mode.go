// Package sampling implements the training-time tile sampling policy:
// pick an image, propose candidate rectangles and accept or reject
// them until one satisfies the active policy.
package sampling

import "fmt"

// Mode selects the acceptance policy for proposed tiles. Dispatch is
// an exhaustive switch over the enum, so adding a mode is a
// compile-time-checked change.
type Mode int

const (
	// ModeRandom accepts every proposal.
	ModeRandom Mode = iota

	// ModeCentered accepts when the label mask is positive at the
	// proposal's center pixel.
	ModeCentered

	// ModeConvexHull accepts when the convex-hull mask is positive at
	// the center pixel. Synthetic tiles always pass: no hull exists
	// for pseudo labels.
	ModeConvexHull

	// ModeVisible accepts when the proposal contains strictly more
	// than 2000 positive mask pixels.
	ModeVisible
)

var modeNames = map[Mode]string{
	ModeRandom:     "random",
	ModeCentered:   "centered",
	ModeConvexHull: "convhull",
	ModeVisible:    "visible",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("sampling: unknown mode %q", s)
}
