package classifier

import (
	"context"
	"fmt"

	"food-tourism-assistant/internal/config"
)

// NewModel creates the backend selected by cfg.ClassifierBackend. The returned
// close function releases backend resources.
func NewModel(ctx context.Context, cfg *config.Config, labels []string) (Model, func() error, error) {
	switch cfg.ClassifierBackend {
	case config.BackendTFServing:
		return NewTFServingModel(cfg.TFServingURL, cfg.TFServingModel), func() error { return nil }, nil
	case config.BackendGemini:
		m, err := NewGeminiModel(ctx, cfg.GeminiAPIKey, labels)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported classifier backend: %s", cfg.ClassifierBackend)
	}
}
