// Package store holds the process-lifetime cache of decoded whole
// images, their label masks and optional convex-hull masks. Everything
// is loaded eagerly; afterwards every lookup is pure and read-only, so
// concurrent readers need no locking.
package store

import (
	"fmt"
	"sort"

	"github.com/NPU-Franklin/HubMap/internal/models"
)

// NotFoundError reports a lookup for an identifier absent from the
// store. It is fatal to the caller and never retried.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: %s %q not found", e.Kind, e.ID)
}

// Store is the immutable whole-image cache.
type Store struct {
	ids    []string
	images map[string]*models.WholeImage
	masks  map[string]*models.Mask
	hulls  map[string]*models.Mask
}

// New assembles a store from already-decoded data. Every image needs a
// mask of matching dimensions; hulls may be nil or partial.
func New(images []*models.WholeImage, masks map[string]*models.Mask, hulls map[string]*models.Mask) (*Store, error) {
	s := &Store{
		images: make(map[string]*models.WholeImage, len(images)),
		masks:  make(map[string]*models.Mask, len(images)),
		hulls:  make(map[string]*models.Mask),
	}
	for _, img := range images {
		mask, ok := masks[img.ID]
		if !ok {
			return nil, fmt.Errorf("store: image %q has no mask", img.ID)
		}
		if mask.Height != img.Height || mask.Width != img.Width {
			return nil, fmt.Errorf("store: mask for %q is %dx%d, image is %dx%d",
				img.ID, mask.Height, mask.Width, img.Height, img.Width)
		}
		s.ids = append(s.ids, img.ID)
		s.images[img.ID] = img
		s.masks[img.ID] = mask
		if hull, ok := hulls[img.ID]; ok {
			s.hulls[img.ID] = hull
		}
	}
	return s, nil
}

// IDs returns the identifiers of every stored image, in load order.
func (s *Store) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Image returns the whole image for id.
func (s *Store) Image(id string) (*models.WholeImage, error) {
	img, ok := s.images[id]
	if !ok {
		return nil, &NotFoundError{Kind: "image", ID: id}
	}
	return img, nil
}

// Mask returns the label mask for id.
func (s *Store) Mask(id string) (*models.Mask, error) {
	mask, ok := s.masks[id]
	if !ok {
		return nil, &NotFoundError{Kind: "mask", ID: id}
	}
	return mask, nil
}

// Hull returns the convex-hull mask for id, if one was derived.
func (s *Store) Hull(id string) (*models.Mask, error) {
	hull, ok := s.hulls[id]
	if !ok {
		return nil, &NotFoundError{Kind: "hull", ID: id}
	}
	return hull, nil
}

// HasHull reports whether a hull mask was derived for id.
func (s *Store) HasHull(id string) bool {
	_, ok := s.hulls[id]
	return ok
}

// MaskSet is a distinct named collection of label masks. Swapping to
// alternative labels (pseudo labels for a fold, external annotations)
// means building a new set, never editing one in place, which keeps
// concurrent reads race-free.
type MaskSet struct {
	Name  string
	ids   []string
	masks map[string]*models.Mask
}

// NewMaskSet builds an immutable named mask collection.
func NewMaskSet(name string, masks map[string]*models.Mask) *MaskSet {
	ids := make([]string, 0, len(masks))
	for id := range masks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	copied := make(map[string]*models.Mask, len(masks))
	for id, m := range masks {
		copied[id] = m
	}
	return &MaskSet{Name: name, ids: ids, masks: copied}
}

// IDs returns the identifiers covered by the set, sorted.
func (ms *MaskSet) IDs() []string {
	return append([]string(nil), ms.ids...)
}

// Mask returns the mask for id within this set.
func (ms *MaskSet) Mask(id string) (*models.Mask, error) {
	mask, ok := ms.masks[id]
	if !ok {
		return nil, &NotFoundError{Kind: "mask[" + ms.Name + "]", ID: id}
	}
	return mask, nil
}
