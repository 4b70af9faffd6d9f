package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModelName = "gemini-1.5-flash"

// geminiInputSpec is the resolution images are sent to Gemini at.
var geminiInputSpec = TensorSpec{Shape: []int{1, 384, 384, 3}, DType: Uint8}

// GeminiModel scores an image against the label list with a Gemini vision
// model. It is used where no self-hosted classifier is available.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	labels []string
}

// NewGeminiModel creates a Gemini backed Model. Close releases the client.
func NewGeminiModel(ctx context.Context, apiKey string, labels []string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(geminiModelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	return &GeminiModel{client: client, model: model, labels: labels}, nil
}

// InputSpec returns the fixed spec used for Gemini uploads.
func (m *GeminiModel) InputSpec(_ context.Context) (TensorSpec, error) {
	return geminiInputSpec, nil
}

// Predict sends the image with the label list and parses one score per label.
func (m *GeminiModel) Predict(ctx context.Context, input Tensor) ([]float32, error) {
	img, err := tensorImage(input)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	resp, err := m.model.GenerateContent(ctx, genai.Text(scoringPrompt(m.labels)), genai.ImageData("jpeg", buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("generated content is not text")
	}

	return parseScores(string(text), len(m.labels))
}

// Close closes the underlying Gemini client.
func (m *GeminiModel) Close() error {
	return m.client.Close()
}

func scoringPrompt(labels []string) string {
	var sb strings.Builder
	sb.WriteString("You are an Indonesian food classifier. Score how likely the photo shows each dish below.\n")
	sb.WriteString("Return ONLY a JSON object {\"scores\": [number, ...]} with exactly one probability per dish, in the same order, summing to 1.\n\n")
	for i, l := range labels {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, l))
	}
	return sb.String()
}

func parseScores(raw string, n int) ([]float32, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out struct {
		Scores []float32 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w while parsing %s", err, raw)
	}
	if len(out.Scores) != n {
		return nil, fmt.Errorf("%w: %d scores for %d labels", ErrScoreMismatch, len(out.Scores), n)
	}
	for i, s := range out.Scores {
		if s < 0 {
			out.Scores[i] = 0
		} else if s > 1 {
			out.Scores[i] = 1
		}
	}
	return out.Scores, nil
}
