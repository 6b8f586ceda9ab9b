package store

import (
	"encoding/csv"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/tiff"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/geometry"
	"github.com/NPU-Franklin/HubMap/pkg/rle"
)

// Params configures the eager load. All paths are explicit; the store
// never consults ambient globals for file locations.
type Params struct {
	// ImageDir holds the whole-image files, one per manifest row,
	// named <id> plus a supported extension.
	ImageDir string

	// ManifestPath is a CSV with an "id,encoding" header mapping each
	// image identifier to its run-length encoded mask.
	ManifestPath string

	// ComputeHulls derives a convex-hull mask per image at load time.
	// Only needed when sampling in convex-hull mode.
	ComputeHulls bool
}

var imageExtensions = []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}

// Load reads the manifest, decodes every referenced image and mask into
// memory and optionally derives hull masks. This is the only moment the
// store touches the disk.
func Load(p Params, log zerolog.Logger) (*Store, error) {
	entries, err := readManifest(p.ManifestPath)
	if err != nil {
		return nil, err
	}

	var images []*models.WholeImage
	masks := make(map[string]*models.Mask, len(entries))
	hulls := make(map[string]*models.Mask)

	for _, e := range entries {
		img, err := decodeImage(p.ImageDir, e.id)
		if err != nil {
			return nil, err
		}
		mask, err := rle.Decode(e.encoding, img.Height, img.Width)
		if err != nil {
			return nil, fmt.Errorf("store: mask for %q: %w", e.id, err)
		}
		images = append(images, img)
		masks[e.id] = mask
		if p.ComputeHulls {
			hulls[e.id] = geometry.HullMask(mask)
		}
		log.Info().
			Str("id", e.id).
			Int("height", img.Height).
			Int("width", img.Width).
			Int("positive", mask.PositiveCount()).
			Bool("hull", p.ComputeHulls).
			Msg("loaded whole image")
	}

	log.Info().Int("images", len(images)).Msg("store ready")
	return New(images, masks, hulls)
}

type manifestEntry struct {
	id       string
	encoding string
}

func readManifest(path string) ([]manifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("store: empty manifest %s", path)
	}

	var entries []manifestEntry
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "id" {
			continue
		}
		if len(rec) < 1 {
			continue
		}
		e := manifestEntry{id: rec[0]}
		if len(rec) > 1 {
			e.encoding = rec[1]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeImage(dir, id string) (*models.WholeImage, error) {
	for _, ext := range imageExtensions {
		path := filepath.Join(dir, id+ext)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", path, err)
		}
		return models.NewWholeImage(id, img), nil
	}
	return nil, &NotFoundError{Kind: "image file", ID: id}
}
