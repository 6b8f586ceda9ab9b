package sampling

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/store"
)

// ExternalPool supplies pre-tiled auxiliary image/label pairs. A draw
// short-circuits the regular sampling procedure entirely.
type ExternalPool interface {
	Draw(rng *rand.Rand) (Sample, error)
}

// PseudoSet is the fold-scoped collection of pseudo-labeled images.
// It is derived whole by a PseudoDeriver and never mutated, so stale
// labels cannot leak across fold switches.
type PseudoSet struct {
	fold   int
	ids    []string
	images map[string]*models.WholeImage
	labels *store.MaskSet
}

// PseudoDeriver is the pure function producing the pseudo-label set
// for a fold. It is re-invoked on every fold switch.
type PseudoDeriver func(fold int) (*PseudoSet, error)

// NewPseudoSet assembles a pseudo set. Every image needs a label mask
// of matching dimensions in labels.
func NewPseudoSet(fold int, images []*models.WholeImage, labels *store.MaskSet) (*PseudoSet, error) {
	set := &PseudoSet{
		fold:   fold,
		images: make(map[string]*models.WholeImage, len(images)),
		labels: labels,
	}
	for _, img := range images {
		mask, err := labels.Mask(img.ID)
		if err != nil {
			return nil, err
		}
		if mask.Height != img.Height || mask.Width != img.Width {
			return nil, fmt.Errorf("sampling: pseudo mask for %q is %dx%d, image is %dx%d",
				img.ID, mask.Height, mask.Width, img.Height, img.Width)
		}
		set.ids = append(set.ids, img.ID)
		set.images[img.ID] = img
	}
	if len(set.ids) == 0 {
		return nil, fmt.Errorf("sampling: empty pseudo set for fold %d", fold)
	}
	return set, nil
}

// Fold returns the fold the set was derived for.
func (p *PseudoSet) Fold() int {
	return p.fold
}

// IDs returns the pseudo image identifiers.
func (p *PseudoSet) IDs() []string {
	return append([]string(nil), p.ids...)
}

// Image returns the pseudo image for id.
func (p *PseudoSet) Image(id string) (*models.WholeImage, error) {
	img, ok := p.images[id]
	if !ok {
		return nil, &store.NotFoundError{Kind: "pseudo image", ID: id}
	}
	return img, nil
}

// Label returns the pseudo label mask for id.
func (p *PseudoSet) Label(id string) (*models.Mask, error) {
	return p.labels.Mask(id)
}

// TilePool is an ExternalPool over fixed-size auxiliary tiles that
// already come with their labels; a draw picks a tile uniformly and
// returns it whole.
type TilePool struct {
	ids    []string
	images map[string]*models.WholeImage
	labels *store.MaskSet
}

// NewTilePool builds a pool from pre-tiled images and their labels.
func NewTilePool(images []*models.WholeImage, labels *store.MaskSet) (*TilePool, error) {
	pool := &TilePool{
		images: make(map[string]*models.WholeImage, len(images)),
		labels: labels,
	}
	for _, img := range images {
		if _, err := labels.Mask(img.ID); err != nil {
			return nil, err
		}
		pool.ids = append(pool.ids, img.ID)
		pool.images[img.ID] = img
	}
	if len(pool.ids) == 0 {
		return nil, fmt.Errorf("sampling: empty external pool")
	}
	return pool, nil
}

// Draw implements ExternalPool.
func (p *TilePool) Draw(rng *rand.Rand) (Sample, error) {
	id := p.ids[rng.Intn(len(p.ids))]
	img := p.images[id]
	return Sample{
		ImageID:   id,
		Rect:      models.TileRect{X0: 0, X1: img.Height, Y0: 0, Y1: img.Width},
		Synthetic: true,
		Source:    SourceExternal,
		Attempts:  1,
	}, nil
}

// Image returns the external tile for id.
func (p *TilePool) Image(id string) (*models.WholeImage, error) {
	img, ok := p.images[id]
	if !ok {
		return nil, &store.NotFoundError{Kind: "external image", ID: id}
	}
	return img, nil
}

// Label returns the external label mask for id.
func (p *TilePool) Label(id string) (*models.Mask, error) {
	return p.labels.Mask(id)
}
