package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/NPU-Franklin/HubMap/pkg/blend"
	"github.com/NPU-Franklin/HubMap/pkg/config"
	"github.com/NPU-Franklin/HubMap/pkg/export"
	"github.com/NPU-Franklin/HubMap/pkg/folds"
	"github.com/NPU-Franklin/HubMap/pkg/sampling"
	"github.com/NPU-Franklin/HubMap/pkg/store"
	"github.com/NPU-Franklin/HubMap/pkg/tiling"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	fold := flag.Int("fold", 0, "Validation fold to select")
	coverage := flag.Bool("coverage", false, "Verify sliding-window coverage for every image")
	sampleCount := flag.Int("sample", 0, "Draw N training tiles and report acceptance statistics")
	predictID := flag.String("predict", "", "Reconstruct a probability map for the given image id using the baseline predictor")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Output.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().
		Timestamp().
		Logger()

	start := time.Now()
	st, err := store.Load(store.Params{
		ImageDir:     cfg.Data.ImageDir,
		ManifestPath: cfg.Data.ManifestPath,
		ComputeHulls: cfg.Data.ComputeHulls,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store load failed")
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("dataset in memory")

	assignment, err := folds.Assign(st.IDs(), cfg.Folds.NumFolds)
	if err != nil {
		log.Fatal().Err(err).Msg("fold assignment failed")
	}
	train, valid, err := assignment.Select(*fold)
	if err != nil {
		log.Fatal().Err(err).Msg("fold selection failed")
	}
	log.Info().
		Int("fold", *fold).
		Strs("valid", valid).
		Int("train", len(train)).
		Msg("fold split")

	if *coverage {
		verifyCoverage(st, cfg, log)
	}

	if *sampleCount > 0 {
		reportSampling(st, cfg, train, *sampleCount, log)
	}

	if *predictID != "" {
		runPrediction(st, cfg, *predictID, log)
	}
}

// luminancePredictor is the baseline model used to exercise the full
// reconstruction and export path without a trained network: the
// foreground probability of a pixel is its normalized luminance.
type luminancePredictor struct{}

func (luminancePredictor) NumClasses() int { return 1 }

func (luminancePredictor) InferBatch(tiles []*image.NRGBA) ([][]float64, error) {
	out := make([][]float64, len(tiles))
	for i, tile := range tiles {
		b := tile.Bounds()
		h, w := b.Dy(), b.Dx()
		plane := make([]float64, h*w)
		for x := 0; x < h; x++ {
			for y := 0; y < w; y++ {
				c := tile.NRGBAAt(b.Min.X+y, b.Min.Y+x)
				lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
				plane[x*w+y] = lum / 255
			}
		}
		out[i] = plane
	}
	return out, nil
}

// runPrediction reconstructs one image with the baseline predictor and
// writes the probability map as a grayscale PNG.
func runPrediction(st *store.Store, cfg *config.Config, id string, log zerolog.Logger) {
	img, err := st.Image(id)
	if err != nil {
		log.Fatal().Err(err).Msg("image lookup failed")
	}

	rc := blend.NewReconstructor(blend.Params{
		TileSize:      cfg.Tiling.TileSize,
		OverlapFactor: cfg.Tiling.OverlapFactor,
		ReduceFactor:  cfg.Tiling.ReduceFactor,
		BatchSize:     cfg.Inference.BatchSize,
		TTA:           cfg.Inference.TTA,
		CropWorkers:   cfg.Inference.CropWorkers,
		Kernel: blend.KernelParams{
			Sigma: cfg.Kernel.Sigma,
			Alpha: cfg.Kernel.Alpha,
			Eps:   cfg.Kernel.Eps,
		},
	}, luminancePredictor{}, log)

	start := time.Now()
	m, err := rc.PredictWholeImage(img)
	if err != nil {
		log.Fatal().Err(err).Str("image", id).Msg("reconstruction failed")
	}

	path := filepath.Join(cfg.Output.MapDir, id+".png")
	if err := export.WritePNG(m, path); err != nil {
		log.Fatal().Err(err).Msg("map export failed")
	}
	log.Info().
		Str("image", id).
		Str("path", path).
		Dur("elapsed", time.Since(start)).
		Msg("probability map written")
}

// verifyCoverage plans the inference grid for every stored image and
// checks that every pixel is covered at least once.
func verifyCoverage(st *store.Store, cfg *config.Config, log zerolog.Logger) {
	cropSize := cfg.Tiling.TileSize * cfg.Tiling.ReduceFactor

	for _, id := range st.IDs() {
		img, err := st.Image(id)
		if err != nil {
			log.Fatal().Err(err).Msg("image lookup failed")
		}

		rects, err := tiling.Plan(img.Height, img.Width, cropSize, cfg.Tiling.OverlapFactor)
		if err != nil {
			log.Fatal().Err(err).Str("image", id).Msg("planning failed")
		}

		covered := make([]bool, img.Height*img.Width)
		for _, r := range rects {
			for x := r.X0; x < r.X1; x++ {
				row := covered[x*img.Width : (x+1)*img.Width]
				for y := r.Y0; y < r.Y1; y++ {
					row[y] = true
				}
			}
		}
		holes := 0
		for _, c := range covered {
			if !c {
				holes++
			}
		}
		if holes > 0 {
			log.Fatal().Str("image", id).Int("holes", holes).Msg("coverage gap")
		}
		log.Info().Str("image", id).Int("tiles", len(rects)).Msg("coverage verified")
	}
}

// reportSampling draws tiles from the training subset and summarizes
// how hard the acceptance policy worked.
func reportSampling(st *store.Store, cfg *config.Config, train []string, n int, log zerolog.Logger) {
	mode, err := sampling.ParseMode(cfg.Sampling.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("bad sampling mode")
	}

	sampler := sampling.New(st, sampling.Params{
		Mode:                mode,
		AcceptanceThreshold: cfg.Sampling.AcceptanceThreshold,
		TileSize:            cfg.Tiling.TileSize,
		CropScale:           cfg.Sampling.CropScale,
		MaxAttempts:         cfg.Sampling.MaxAttempts,
		ExternalProb:        cfg.Sampling.ExternalProb,
		PseudoProb:          cfg.Sampling.PseudoProb,
		Seed:                cfg.Sampling.Seed,
	}, log)
	if err := sampler.SetSubset(train, true); err != nil {
		log.Fatal().Err(err).Msg("subset selection failed")
	}

	attempts := make([]float64, 0, n)
	perImage := make(map[string]int)
	exhausted := 0
	for i := 0; i < n; i++ {
		s, err := sampler.Sample()
		if err != nil {
			log.Fatal().Err(err).Msg("sampling failed")
		}
		attempts = append(attempts, float64(s.Attempts))
		perImage[s.ImageID]++
		if s.Attempts >= cfg.Sampling.MaxAttempts {
			exhausted++
		}
	}

	log.Info().
		Int("samples", n).
		Float64("meanAttempts", stat.Mean(attempts, nil)).
		Float64("stdAttempts", stat.StdDev(attempts, nil)).
		Int("exhausted", exhausted).
		Msg("sampling statistics")
	for id, count := range perImage {
		log.Debug().Str("image", id).Int("tiles", count).Msg("draw share")
	}
}
