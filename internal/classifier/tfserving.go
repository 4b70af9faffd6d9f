package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// tfServingModel is a classifier hosted by TensorFlow Serving's REST API.
type tfServingModel struct {
	baseURL    string
	model      string
	httpClient *http.Client

	mu   sync.Mutex
	spec *TensorSpec
}

// NewTFServingModel creates a Model backed by TensorFlow Serving at baseURL.
func NewTFServingModel(baseURL, model string) Model {
	return &tfServingModel{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tfMetadata struct {
	Metadata struct {
		SignatureDef struct {
			SignatureDef map[string]struct {
				Inputs map[string]struct {
					DType       string `json:"dtype"`
					TensorShape struct {
						Dim []struct {
							Size string `json:"size"`
						} `json:"dim"`
					} `json:"tensor_shape"`
				} `json:"inputs"`
			} `json:"signature_def"`
		} `json:"signature_def"`
	} `json:"metadata"`
}

var tfDTypes = map[string]DType{
	"DT_FLOAT": Float32,
	"DT_UINT8": Uint8,
}

// InputSpec reads the serving_default signature once and caches it.
func (m *tfServingModel) InputSpec(ctx context.Context) (TensorSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spec != nil {
		return *m.spec, nil
	}

	url := fmt.Sprintf("%s/v1/models/%s/metadata", m.baseURL, m.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TensorSpec{}, fmt.Errorf("failed to create request: %w", err)
	}

	var meta tfMetadata
	if err := m.do(req, &meta); err != nil {
		return TensorSpec{}, err
	}

	sig, ok := meta.Metadata.SignatureDef.SignatureDef["serving_default"]
	if !ok {
		return TensorSpec{}, fmt.Errorf("model %s has no serving_default signature", m.model)
	}
	if len(sig.Inputs) != 1 {
		return TensorSpec{}, fmt.Errorf("%w: expected a single input, got %d", ErrUnsupportedShape, len(sig.Inputs))
	}

	var spec TensorSpec
	for _, in := range sig.Inputs {
		dtype, ok := tfDTypes[in.DType]
		if !ok {
			return TensorSpec{}, fmt.Errorf("%w: %s", ErrUnsupportedDType, in.DType)
		}
		spec.DType = dtype
		for _, d := range in.TensorShape.Dim {
			size, err := strconv.Atoi(d.Size)
			if err != nil {
				return TensorSpec{}, fmt.Errorf("invalid dimension %q: %w", d.Size, err)
			}
			spec.Shape = append(spec.Shape, size)
		}
	}

	m.spec = &spec
	return spec, nil
}

// Predict posts a single instance and returns its prediction row.
func (m *tfServingModel) Predict(ctx context.Context, input Tensor) ([]float32, error) {
	shape := input.Shape
	if len(shape) == 4 {
		shape = shape[1:]
	}

	var instance any
	if input.DType == Float32 {
		instance = nest(input.Float32, shape)
	} else {
		instance = nest(input.Uint8, shape)
	}

	body, err := json.Marshal(map[string]any{"instances": []any{instance}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", m.baseURL, m.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Predictions [][]float32 `json:"predictions"`
	}
	if err := m.do(req, &out); err != nil {
		return nil, err
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions returned")
	}
	return out.Predictions[0], nil
}

func (m *tfServingModel) do(req *http.Request, v any) error {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tfserving api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// nest reshapes a flat row-major slice into nested slices following shape.
func nest[T float32 | uint8](flat []T, shape []int) any {
	if len(shape) == 1 {
		if _, ok := any(flat).([]uint8); ok {
			// []uint8 would marshal as base64.
			ints := make([]int, len(flat))
			for i, v := range flat {
				ints[i] = int(v)
			}
			return ints
		}
		return flat
	}
	stride := 1
	for _, d := range shape[1:] {
		stride *= d
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = nest(flat[i*stride:(i+1)*stride], shape[1:])
	}
	return out
}
