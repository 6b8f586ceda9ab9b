package blend

import "image"

// Predictor is the external segmentation model, consumed as an opaque
// forward pass: fixed-size tiles in, per-pixel class probabilities out.
type Predictor interface {
	// InferBatch returns one prediction per input tile. Each
	// prediction holds NumClasses class planes of height*width values
	// in class-major order.
	InferBatch(tiles []*image.NRGBA) ([][]float64, error)

	// NumClasses reports the declared number of output classes, used
	// to select the foreground probability plane.
	NumClasses() int
}

// foregroundPlane selects the foreground probability plane from a
// class-major prediction. Multi-class models put the foreground in the
// first plane; single-plane models are returned as-is.
func foregroundPlane(pred []float64, classes, pixels int) []float64 {
	if classes <= 1 || len(pred) <= pixels {
		return pred
	}
	return pred[:pixels]
}
