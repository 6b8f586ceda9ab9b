package blend

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"

	"github.com/NPU-Franklin/HubMap/internal/models"
	"github.com/NPU-Franklin/HubMap/pkg/tiling"
)

// Params configures whole-image inference.
type Params struct {
	// TileSize is the model input size in pixels.
	TileSize int

	// OverlapFactor controls tile overlap; step = tile / overlap.
	OverlapFactor float64

	// ReduceFactor scales the full-resolution crop down to the model
	// input: crops are TileSize*ReduceFactor pixels wide.
	ReduceFactor int

	// BatchSize is the number of tiles per forward pass.
	BatchSize int

	// TTA averages predictions over flipped tile variants.
	TTA bool

	// Kernel shapes the tile border weighting.
	Kernel KernelParams

	// CropWorkers bounds the goroutines cropping and downscaling
	// tiles. Zero means one per CPU.
	CropWorkers int
}

// Reconstructor drives the inference data flow for one image at a
// time: plan the grid, crop tiles, run the predictor in batches and
// blend every prediction into a normalized probability map.
type Reconstructor struct {
	params    Params
	predictor Predictor
	log       zerolog.Logger
}

// NewReconstructor wires a predictor into the reconstruction pipeline.
func NewReconstructor(params Params, predictor Predictor, log zerolog.Logger) *Reconstructor {
	if params.ReduceFactor < 1 {
		params.ReduceFactor = 1
	}
	if params.BatchSize < 1 {
		params.BatchSize = 32
	}
	if params.CropWorkers < 1 {
		params.CropWorkers = runtime.NumCPU()
	}
	return &Reconstructor{params: params, predictor: predictor, log: log}
}

// PredictWholeImage returns the seam-free probability map for img.
// Tiles are cropped by a bounded worker pool; accumulation happens
// serially in plan order so the tile-to-prediction correspondence and
// the weight totals stay consistent.
func (rc *Reconstructor) PredictWholeImage(img *models.WholeImage) (ProbabilityMap, error) {
	p := rc.params
	cropSize := p.TileSize * p.ReduceFactor

	rects, err := tiling.Plan(img.Height, img.Width, cropSize, p.OverlapFactor)
	if err != nil {
		return ProbabilityMap{}, err
	}

	kernel := BuildKernel(cropSize, p.Kernel)
	acc := NewAccumulator(img.Height, img.Width)

	rc.log.Info().
		Str("image", img.ID).
		Int("tiles", len(rects)).
		Int("cropSize", cropSize).
		Bool("tta", p.TTA).
		Msg("reconstructing whole image")

	for start := 0; start < len(rects); start += p.BatchSize {
		end := min(start+p.BatchSize, len(rects))
		batch := rects[start:end]

		tiles, err := rc.cropBatch(img, batch, cropSize)
		if err != nil {
			return ProbabilityMap{}, err
		}

		planes, err := rc.predictBatch(tiles)
		if err != nil {
			return ProbabilityMap{}, err
		}

		for i, plane := range planes {
			if p.ReduceFactor > 1 {
				plane = resizeBilinear(plane, p.TileSize, cropSize)
			}
			if err := acc.AddTile(batch[i], plane, kernel); err != nil {
				return ProbabilityMap{}, err
			}
		}
		rc.log.Debug().Int("done", end).Int("total", len(rects)).Msg("batch blended")
	}

	return acc.Finalize(), nil
}

// cropBatch extracts and downscales one batch of tiles in parallel.
// Workers only read the immutable image, so no locking is needed.
func (rc *Reconstructor) cropBatch(img *models.WholeImage, batch []models.TileRect, cropSize int) ([]*image.NRGBA, error) {
	tiles := make([]*image.NRGBA, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	sem := make(chan struct{}, rc.params.CropWorkers)
	for i, r := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, r models.TileRect) {
			defer wg.Done()
			defer func() { <-sem }()

			crop, err := img.Crop(r)
			if err != nil {
				errs[i] = err
				return
			}
			if rc.params.ReduceFactor > 1 {
				small := image.NewNRGBA(image.Rect(0, 0, rc.params.TileSize, rc.params.TileSize))
				xdraw.BiLinear.Scale(small, small.Bounds(), crop, crop.Bounds(), xdraw.Src, nil)
				crop = small
			}
			tiles[i] = crop
		}(i, r)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return tiles, nil
}

// predictBatch runs the forward pass, optionally averaging over the
// flip variants, and returns one foreground plane per tile.
func (rc *Reconstructor) predictBatch(tiles []*image.NRGBA) ([][]float64, error) {
	pixels := rc.params.TileSize * rc.params.TileSize
	classes := rc.predictor.NumClasses()

	preds, err := rc.predictor.InferBatch(tiles)
	if err != nil {
		return nil, fmt.Errorf("blend: forward pass: %w", err)
	}
	if len(preds) != len(tiles) {
		return nil, fmt.Errorf("blend: got %d predictions for %d tiles", len(preds), len(tiles))
	}

	variants := make([][][]float64, len(tiles))
	for i, pred := range preds {
		variants[i] = [][]float64{foregroundPlane(pred, classes, pixels)}
	}

	if rc.params.TTA {
		for _, f := range DefaultFlips {
			flipped := make([]*image.NRGBA, len(tiles))
			for i, tile := range tiles {
				flipped[i] = FlipImage(tile, f)
			}
			fpreds, err := rc.predictor.InferBatch(flipped)
			if err != nil {
				return nil, fmt.Errorf("blend: forward pass (flip %d): %w", f, err)
			}
			if len(fpreds) != len(tiles) {
				return nil, fmt.Errorf("blend: got %d flip predictions for %d tiles", len(fpreds), len(tiles))
			}
			for i, pred := range fpreds {
				plane := foregroundPlane(pred, classes, pixels)
				// Undo the flip so the variant aligns with the tile.
				plane = FlipMap(plane, rc.params.TileSize, rc.params.TileSize, f)
				variants[i] = append(variants[i], plane)
			}
		}
	}

	planes := make([][]float64, len(tiles))
	for i, v := range variants {
		planes[i] = MeanPredictions(v)
	}
	return planes, nil
}

// resizeBilinear scales a square float raster from one side length to
// another. Predictions come back at model resolution and must be
// brought up to the full-resolution crop before blending.
func resizeBilinear(data []float64, from, to int) []float64 {
	if from == to {
		return data
	}
	out := make([]float64, to*to)
	scale := float64(from) / float64(to)
	for x := 0; x < to; x++ {
		sx := (float64(x)+0.5)*scale - 0.5
		x0 := clampIndex(int(sx), from)
		x1 := clampIndex(x0+1, from)
		fx := sx - float64(x0)
		if fx < 0 {
			fx = 0
		}
		for y := 0; y < to; y++ {
			sy := (float64(y)+0.5)*scale - 0.5
			y0 := clampIndex(int(sy), from)
			y1 := clampIndex(y0+1, from)
			fy := sy - float64(y0)
			if fy < 0 {
				fy = 0
			}
			top := data[x0*from+y0]*(1-fy) + data[x0*from+y1]*fy
			bot := data[x1*from+y0]*(1-fy) + data[x1*from+y1]*fy
			out[x*to+y] = top*(1-fx) + bot*fx
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
