package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultThreshold is the minimum confidence for accepting an identification.
const DefaultThreshold = 0.3

// DType is the element type of a model input tensor.
type DType string

const (
	Float32 DType = "float32"
	Uint8   DType = "uint8"
)

// Layout is the position of the channel axis.
type Layout int

const (
	ChannelsLast Layout = iota
	ChannelsFirst
)

var (
	ErrUnsupportedShape = errors.New("unsupported input shape")
	ErrUnsupportedDType = errors.New("unsupported input dtype")
	ErrScoreMismatch    = errors.New("score vector does not match label list")
)

// TensorSpec is the input a model declares.
type TensorSpec struct {
	Shape []int
	DType DType
}

// Tensor is a single input batch. Exactly one of Float32 and Uint8 is set,
// matching DType.
type Tensor struct {
	Shape   []int
	DType   DType
	Float32 []float32
	Uint8   []uint8
}

// Model is an externally trained image classifier.
type Model interface {
	// InputSpec reports the declared input shape and dtype.
	InputSpec(ctx context.Context) (TensorSpec, error)
	// Predict runs the model once and returns one score per class.
	Predict(ctx context.Context, input Tensor) ([]float32, error)
}

// Prediction is the top class of a classification.
type Prediction struct {
	Label      string
	Index      int
	Confidence float64
}

// Accepts reports whether the prediction clears threshold.
func (p Prediction) Accepts(threshold float64) bool {
	return p.Confidence >= threshold
}

// geometry is the resolved spatial layout of a TensorSpec.
type geometry struct {
	height, width, channels int
	layout                  Layout
	batched                 bool
}

const fallbackSide = 224

func isChannelDim(d int) bool {
	return d == 1 || d == 3 || d == 4
}

// resolveGeometry infers height, width, channel count and channel order from
// a declared shape. Dynamic spatial dimensions fall back to 224.
func resolveGeometry(shape []int) (geometry, error) {
	g := geometry{}
	dims := shape
	switch len(shape) {
	case 4:
		g.batched = true
		dims = shape[1:]
	case 3:
	default:
		return g, fmt.Errorf("%w: %v", ErrUnsupportedShape, shape)
	}

	switch {
	case isChannelDim(dims[2]):
		g.layout = ChannelsLast
		g.height, g.width, g.channels = dims[0], dims[1], dims[2]
	case isChannelDim(dims[0]):
		g.layout = ChannelsFirst
		g.channels, g.height, g.width = dims[0], dims[1], dims[2]
	default:
		return g, fmt.Errorf("%w: no channel axis in %v", ErrUnsupportedShape, shape)
	}

	if g.height <= 0 {
		g.height = fallbackSide
	}
	if g.width <= 0 {
		g.width = fallbackSide
	}
	return g, nil
}

func (g geometry) shape() []int {
	var s []int
	if g.batched {
		s = append(s, 1)
	}
	if g.layout == ChannelsLast {
		return append(s, g.height, g.width, g.channels)
	}
	return append(s, g.channels, g.height, g.width)
}

// Adapter prepares images for a Model and maps scores onto labels.
type Adapter struct {
	model  Model
	labels []string
}

// NewAdapter creates an Adapter. labels[i] names score index i.
func NewAdapter(model Model, labels []string) *Adapter {
	return &Adapter{model: model, labels: labels}
}

// Labels returns the class names.
func (a *Adapter) Labels() []string {
	return a.labels
}

// ClassifyBytes decodes a JPEG, PNG or WebP image and classifies it.
func (a *Adapter) ClassifyBytes(ctx context.Context, data []byte) (Prediction, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return a.Classify(ctx, img)
}

// Classify resizes img to the model's declared input, invokes the model once
// and returns the highest scoring label.
func (a *Adapter) Classify(ctx context.Context, img image.Image) (Prediction, error) {
	spec, err := a.model.InputSpec(ctx)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to read model input spec: %w", err)
	}

	input, err := Prepare(img, spec)
	if err != nil {
		return Prediction{}, err
	}

	scores, err := a.model.Predict(ctx, input)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to run model: %w", err)
	}
	if len(scores) == 0 || len(scores) != len(a.labels) {
		return Prediction{}, fmt.Errorf("%w: %d scores for %d labels", ErrScoreMismatch, len(scores), len(a.labels))
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return Prediction{
		Label:      a.labels[best],
		Index:      best,
		Confidence: float64(scores[best]),
	}, nil
}

// Prepare converts img into the tensor described by spec. Float inputs are
// scaled to [0,1]; integer inputs carry raw 0-255 intensities.
func Prepare(img image.Image, spec TensorSpec) (Tensor, error) {
	if spec.DType != Float32 && spec.DType != Uint8 {
		return Tensor{}, fmt.Errorf("%w: %s", ErrUnsupportedDType, spec.DType)
	}
	g, err := resolveGeometry(spec.Shape)
	if err != nil {
		return Tensor{}, err
	}

	resized := resize(img, g.width, g.height)
	t := Tensor{Shape: g.shape(), DType: spec.DType}
	n := g.height * g.width * g.channels
	if spec.DType == Float32 {
		t.Float32 = make([]float32, n)
	} else {
		t.Uint8 = make([]uint8, n)
	}

	plane := g.height * g.width
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			px := pixel(resized, x, y, g.channels)
			for c := 0; c < g.channels; c++ {
				var idx int
				if g.layout == ChannelsLast {
					idx = (y*g.width+x)*g.channels + c
				} else {
					idx = c*plane + y*g.width + x
				}
				if t.Float32 != nil {
					t.Float32[idx] = float32(px[c]) / 255
				} else {
					t.Uint8[idx] = px[c]
				}
			}
		}
	}
	return t, nil
}
