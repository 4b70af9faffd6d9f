package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"food-tourism-assistant/internal/classifier"
	"food-tourism-assistant/internal/config"
	"food-tourism-assistant/internal/database"
	"food-tourism-assistant/internal/knowledge"
	"food-tourism-assistant/internal/metrics"
	"food-tourism-assistant/internal/nutrition"
	"food-tourism-assistant/internal/responder"
	"food-tourism-assistant/internal/session"
)

// App holds the application's dependencies.
type App struct {
	cfg           *config.Config
	labels        []string
	knowledgeBase *knowledge.KnowledgeBase
	nutrition     *nutrition.Table
	classifier    *classifier.Adapter
	closeModel    func() error

	db           *database.DB
	metricsStore *metrics.Store
}

// Reference holds the read-only data loaded at startup.
type Reference struct {
	Labels        []string
	KnowledgeBase *knowledge.KnowledgeBase
	Nutrition     *nutrition.Table
}

// LoadReference loads labels, the knowledge base and the optional nutrition
// data named by cfg.
func LoadReference(cfg *config.Config) (*Reference, error) {
	labels, err := knowledge.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	kb, err := knowledge.LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, err
	}

	var table *nutrition.Table
	if cfg.NutritionDataPath != "" {
		table, err = nutrition.LoadNutritionData(cfg.NutritionDataPath)
		if err != nil {
			return nil, err
		}
	}

	for _, label := range missingDishes(labels, kb) {
		log.Printf("⚠️ Label %q has no knowledge base entry; default answers will be used", label)
	}

	return &Reference{Labels: labels, KnowledgeBase: kb, Nutrition: table}, nil
}

func missingDishes(labels []string, kb *knowledge.KnowledgeBase) []string {
	var missing []string
	for _, label := range labels {
		if _, ok := kb.Lookup(label); !ok {
			missing = append(missing, label)
		}
	}
	return missing
}

// New loads reference data, opens the metrics database and creates the
// classifier backend selected by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	ref, err := LoadReference(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	log.Printf("Loaded %d labels and %d dishes", len(ref.Labels), ref.KnowledgeBase.Len())

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	model, closeModel, err := classifier.NewModel(ctx, cfg, ref.Labels)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s classifier: %w", cfg.ClassifierBackend, err)
	}

	return &App{
		cfg:           cfg,
		labels:        ref.Labels,
		knowledgeBase: ref.KnowledgeBase,
		nutrition:     ref.Nutrition,
		classifier:    classifier.NewAdapter(model, ref.Labels),
		closeModel:    closeModel,
		db:            db,
		metricsStore:  metrics.NewStore(db.SQL, cfg.ClassifierBackend),
	}, nil
}

// Deps returns the collaborators shared by every conversation session.
func (a *App) Deps() *session.Deps {
	return &session.Deps{
		Classifier:    a.classifier,
		KnowledgeBase: a.knowledgeBase,
		Responder:     responder.New(a.nutrition),
		Recorder:      a.metricsStore,
		Threshold:     a.cfg.ConfidenceThreshold,
		DefaultWeight: a.cfg.DefaultWeightGrams,
		UsePortion:    a.cfg.UsePortion,
	}
}

// MetricsStore returns the classification metrics store.
func (a *App) MetricsStore() *metrics.Store {
	return a.metricsStore
}

// ClassifyFile classifies the image at path without touching any session.
func (a *App) ClassifyFile(ctx context.Context, path string) (classifier.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return classifier.Prediction{}, fmt.Errorf("failed to read image: %w", err)
	}
	return a.classifier.ClassifyBytes(ctx, data)
}

// Accepts reports whether pred clears the configured confidence threshold.
func (a *App) Accepts(pred classifier.Prediction) bool {
	return pred.Accepts(a.cfg.ConfidenceThreshold)
}

// Close releases the classifier backend and the database.
func (a *App) Close() error {
	if err := a.closeModel(); err != nil {
		log.Printf("Warning: failed to close classifier: %v", err)
	}
	return a.db.Close()
}
