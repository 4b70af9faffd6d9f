package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Classifier backends.
const (
	BackendTFServing = "tfserving"
	BackendGemini    = "gemini"
)

// Config holds the configuration for the application.
type Config struct {
	KnowledgeBasePath string
	LabelsPath        string
	NutritionDataPath string
	DatabasePath      string

	// Classifier Config
	ClassifierBackend   string
	TFServingURL        string
	TFServingModel      string
	GeminiAPIKey        string
	ConfidenceThreshold float64

	// Nutrition defaults applied to new sessions
	DefaultWeightGrams float64
	UsePortion         bool

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	Port string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	knowledgeBasePath := os.Getenv("KNOWLEDGE_BASE_PATH")
	if knowledgeBasePath == "" {
		return nil, fmt.Errorf("KNOWLEDGE_BASE_PATH environment variable not set")
	}

	labelsPath := os.Getenv("LABELS_PATH")
	if labelsPath == "" {
		return nil, fmt.Errorf("LABELS_PATH environment variable not set")
	}

	backend := strings.ToLower(getEnv("CLASSIFIER_BACKEND", BackendTFServing))
	tfServingURL := os.Getenv("TFSERVING_URL")
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	switch backend {
	case BackendTFServing:
		if tfServingURL == "" {
			return nil, fmt.Errorf("TFSERVING_URL environment variable not set")
		}
	case BackendGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported CLASSIFIER_BACKEND: %s", backend)
	}

	threshold, err := getFloat("CONFIDENCE_THRESHOLD", 0.3)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got %v", threshold)
	}

	weight, err := getFloat("DEFAULT_WEIGHT_GRAMS", 100)
	if err != nil {
		return nil, err
	}
	if weight <= 0 {
		return nil, fmt.Errorf("DEFAULT_WEIGHT_GRAMS must be positive, got %v", weight)
	}

	usePortion := true
	if v := os.Getenv("USE_PORTION"); v != "" {
		usePortion, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid USE_PORTION %q: %w", v, err)
		}
	}

	// Telegram Config (Optional for CLI, required for Bot)
	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	var adminID int64
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		adminID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", v, err)
		}
	}

	return &Config{
		KnowledgeBasePath:      knowledgeBasePath,
		LabelsPath:             labelsPath,
		NutritionDataPath:      os.Getenv("NUTRITION_DATA_PATH"),
		DatabasePath:           getEnv("DATABASE_PATH", "data/food-guide.db"),
		ClassifierBackend:      backend,
		TFServingURL:           strings.TrimRight(tfServingURL, "/"),
		TFServingModel:         getEnv("TFSERVING_MODEL", "food_classifier"),
		GeminiAPIKey:           geminiAPIKey,
		ConfidenceThreshold:    threshold,
		DefaultWeightGrams:     weight,
		UsePortion:             usePortion,
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
		Port:                   getEnv("PORT", "8080"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

// parseIDList parses a comma separated list of Telegram user IDs.
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
