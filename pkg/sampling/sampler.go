package sampling

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/store"
)

// visiblePixelFloor is the positive-pixel count a proposal must
// strictly exceed in visible mode.
const visiblePixelFloor = 2000

// Params configures a Sampler.
type Params struct {
	// Mode is the acceptance policy.
	Mode Mode

	// AcceptanceThreshold in [0, 1] blends on-target and random
	// sampling: a failed primary condition is still accepted with
	// probability 1 - threshold. Zero disables the policy entirely.
	AcceptanceThreshold float64

	// TileSize is the target tile side after augmentation cropping.
	TileSize int

	// CropScale oversizes the proposed crop relative to TileSize,
	// reserving margin for augmentation-safe center cropping.
	CropScale float64

	// MaxAttempts bounds the rejection loop. When exhausted the last
	// proposal is accepted, so a pathological mask cannot stall the
	// sampler.
	MaxAttempts int

	// ExternalProb short-circuits a draw to the external pool.
	ExternalProb float64

	// PseudoProb redirects a draw to the pseudo-labeled pool.
	PseudoProb float64

	// Seed initializes the sampler-owned random state.
	Seed uint64
}

// Source identifies which pool produced a sample.
type Source int

const (
	SourceTrain Source = iota
	SourceValidation
	SourceExternal
	SourcePseudo
)

// Sample is one accepted training draw. The caller crops the pixels
// and labels itself, from the store or from the pool that produced it.
type Sample struct {
	ImageID   string
	Rect      models.TileRect
	Synthetic bool
	Source    Source

	// Attempts counts the proposals made, including the accepted one.
	Attempts int
}

// Sampler is the stateful tile sampling policy engine. Each worker
// must own its Sampler: the random state is not synchronized, while
// the store it reads is immutable and safe to share.
type Sampler struct {
	params Params
	store  *store.Store
	log    zerolog.Logger
	rng    *rand.Rand

	training  bool
	threshold float64
	active    []string
	weighted  distuv.Categorical

	external ExternalPool
	pseudo   *PseudoSet
}

// New creates a sampler over the given store. Call SetSubset before
// drawing.
func New(st *store.Store, params Params, log zerolog.Logger) *Sampler {
	if params.CropScale <= 0 {
		params.CropScale = 1.5
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = 100
	}
	return &Sampler{
		params: params,
		store:  st,
		log:    log,
		rng:    rand.New(rand.NewSource(params.Seed)),
	}
}

// SetSubset switches the active image subset. Training subsets are
// drawn proportionally to pixel area, which biases sampling toward
// larger slides; validation subsets (training=false) are drawn
// uniformly and bypass the acceptance policy.
func (s *Sampler) SetSubset(ids []string, training bool) error {
	if len(ids) == 0 {
		return fmt.Errorf("sampling: empty image subset")
	}
	areas := make([]float64, len(ids))
	for i, id := range ids {
		img, err := s.store.Image(id)
		if err != nil {
			return err
		}
		areas[i] = float64(img.Area())
	}

	s.active = append([]string(nil), ids...)
	s.training = training
	if training {
		s.threshold = s.params.AcceptanceThreshold
		s.weighted = distuv.NewCategorical(areas, rand.NewSource(s.rng.Uint64()))
	} else {
		s.threshold = 0
	}
	return nil
}

// SetExternal installs the auxiliary external tile pool.
func (s *Sampler) SetExternal(pool ExternalPool) {
	s.external = pool
}

// SetFold derives and installs the pseudo-label set for a fold. The
// previous set is replaced wholesale; deriving per fold keeps
// validation labels from leaking across folds.
func (s *Sampler) SetFold(fold int, derive PseudoDeriver) error {
	if derive == nil {
		s.pseudo = nil
		return nil
	}
	set, err := derive(fold)
	if err != nil {
		return fmt.Errorf("sampling: derive pseudo labels for fold %d: %w", fold, err)
	}
	s.pseudo = set
	return nil
}

// Sample draws one tile according to the active policy.
func (s *Sampler) Sample() (Sample, error) {
	if len(s.active) == 0 {
		return Sample{}, fmt.Errorf("sampling: no active subset, call SetSubset first")
	}

	if !s.training {
		// Validation draws are uniform across the subset and accept
		// the first proposal.
		id := s.active[s.rng.Intn(len(s.active))]
		return s.propose(id, false, SourceValidation)
	}

	if s.external != nil && s.rng.Float64() < s.params.ExternalProb {
		return s.external.Draw(s.rng)
	}

	if s.pseudo != nil && s.rng.Float64() < s.params.PseudoProb {
		id := s.pseudo.ids[s.rng.Intn(len(s.pseudo.ids))]
		return s.propose(id, true, SourcePseudo)
	}

	idx := int(s.weighted.Rand())
	return s.propose(s.active[idx], false, SourceTrain)
}

// propose runs bounded rejection sampling over uniformly random
// top-left corners of an oversized crop inside the chosen image.
func (s *Sampler) propose(id string, synthetic bool, src Source) (Sample, error) {
	height, width, err := s.imageDims(id, synthetic)
	if err != nil {
		return Sample{}, err
	}
	cropSize := int(s.params.CropScale * float64(s.params.TileSize))
	if height <= cropSize || width <= cropSize {
		return Sample{}, fmt.Errorf("sampling: image %q (%dx%d) cannot fit a %d crop",
			id, height, width, cropSize)
	}

	var rect models.TileRect
	for attempt := 1; attempt <= s.params.MaxAttempts; attempt++ {
		x0 := s.rng.Intn(height - cropSize)
		y0 := s.rng.Intn(width - cropSize)
		rect = models.NewTileRect(x0, y0, cropSize)
		if s.accept(id, rect, synthetic) {
			return Sample{ImageID: id, Rect: rect, Synthetic: synthetic, Source: src, Attempts: attempt}, nil
		}
	}

	// Liveness fallback: a tiny positive region combined with a high
	// threshold could otherwise spin forever.
	s.log.Debug().
		Str("image", id).
		Int("attempts", s.params.MaxAttempts).
		Msg("rejection budget exhausted, accepting last proposal")
	return Sample{ImageID: id, Rect: rect, Synthetic: synthetic, Source: src, Attempts: s.params.MaxAttempts}, nil
}

// accept applies the acceptance policy to one proposal.
func (s *Sampler) accept(id string, rect models.TileRect, synthetic bool) bool {
	if s.threshold == 0 {
		return true
	}

	switch s.params.Mode {
	case ModeRandom:
		return true

	case ModeCentered:
		cx, cy := rect.Center()
		if mask := s.maskFor(id, synthetic); mask != nil && mask.At(cx, cy) {
			return true
		}

	case ModeConvexHull:
		if synthetic {
			// No hull is derived for pseudo labels.
			return true
		}
		cx, cy := rect.Center()
		if hull, err := s.store.Hull(id); err == nil && hull.At(cx, cy) {
			return true
		}

	case ModeVisible:
		if mask := s.maskFor(id, synthetic); mask != nil && mask.SumRegion(rect) > visiblePixelFloor {
			return true
		}
	}

	// Soft rejection: keep a controllable share of off-target tiles.
	return s.rng.Float64() > s.threshold
}

func (s *Sampler) maskFor(id string, synthetic bool) *models.Mask {
	if synthetic {
		if s.pseudo == nil {
			return nil
		}
		mask, err := s.pseudo.labels.Mask(id)
		if err != nil {
			return nil
		}
		return mask
	}
	mask, err := s.store.Mask(id)
	if err != nil {
		return nil
	}
	return mask
}

func (s *Sampler) imageDims(id string, synthetic bool) (int, int, error) {
	if synthetic {
		img, ok := s.pseudo.images[id]
		if !ok {
			return 0, 0, &store.NotFoundError{Kind: "pseudo image", ID: id}
		}
		return img.Height, img.Width, nil
	}
	img, err := s.store.Image(id)
	if err != nil {
		return 0, 0, err
	}
	return img.Height, img.Width, nil
}
