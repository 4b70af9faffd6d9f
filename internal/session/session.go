package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"food-tourism-assistant/internal/classifier"
	"food-tourism-assistant/internal/knowledge"
	"food-tourism-assistant/internal/nutrition"
	"food-tourism-assistant/internal/responder"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind is the content type of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// State is the conversation state.
type State string

const (
	StateNoImage    State = "no_image"
	StateIdentified State = "identified"
)

// Message is one entry of the append-only conversation log. Image messages
// carry a short description rather than the image bytes.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Classifier labels images.
type Classifier interface {
	ClassifyBytes(ctx context.Context, data []byte) (classifier.Prediction, error)
}

// Recorder receives one event per classification attempt.
type Recorder interface {
	RecordClassification(pred classifier.Prediction, accepted bool, latency time.Duration) error
}

// Deps holds the shared, read-only collaborators of every session.
type Deps struct {
	Classifier    Classifier
	KnowledgeBase *knowledge.KnowledgeBase
	Responder     *responder.Responder
	Recorder      Recorder
	Threshold     float64
	DefaultWeight float64
	UsePortion    bool
	// PickFunFact selects an index in [0, n). Defaults to math/rand.
	PickFunFact func(n int) int
}

const (
	greetingMessage = "👋 Hi! Send me a photo of an Indonesian dish and I'll tell you all about it."
	resetHint       = "I'm already talking about *%s*. Send /reset to identify a new dish."
	failedMessage   = "😕 Sorry, I couldn't read that photo. Please try another one."
)

// Session is one user's conversation. All methods are safe for concurrent
// use; each action runs to completion before the next starts.
type Session struct {
	ID string

	mu          sync.Mutex
	deps        *Deps
	currentDish string
	weight      float64
	usePortion  bool
	messages    []Message
}

// New creates a session in the NoImage state.
func New(id string, deps *Deps) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:         id,
		deps:       deps,
		weight:     deps.DefaultWeight,
		usePortion: deps.UsePortion,
	}
}

// State reports the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Session) state() State {
	if s.currentDish == "" {
		return StateNoImage
	}
	return StateIdentified
}

// CurrentDish returns the identified dish, or "" in the NoImage state.
func (s *Session) CurrentDish() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDish
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) appendMessage(role Role, kind Kind, content string) Message {
	m := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages = append(s.messages, m)
	return m
}

// Upload classifies an image. A confident prediction moves the session to
// Identified and returns the introduction; otherwise the session stays in
// NoImage. The returned message is the assistant reply.
func (s *Session) Upload(ctx context.Context, image []byte) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendMessage(RoleUser, KindImage, fmt.Sprintf("[photo, %d bytes]", len(image)))

	if s.state() == StateIdentified {
		return s.appendMessage(RoleAssistant, KindText, fmt.Sprintf(resetHint, s.currentDish)), nil
	}

	start := time.Now()
	pred, err := s.deps.Classifier.ClassifyBytes(ctx, image)
	if err != nil {
		log.Printf("Session %s: classification failed: %v", s.ID, err)
		s.appendMessage(RoleAssistant, KindText, failedMessage)
		return Message{}, fmt.Errorf("failed to classify image: %w", err)
	}
	accepted := pred.Accepts(s.deps.Threshold)

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.RecordClassification(pred, accepted, time.Since(start)); err != nil {
			log.Printf("Warning: failed to record classification metric: %v", err)
		}
	}

	if !accepted {
		return s.appendMessage(RoleAssistant, KindText, fmt.Sprintf(
			"🤔 I'm not confident enough about this photo (best guess *%s*, %.0f%%). Please try another picture of the dish.",
			pred.Label, pred.Confidence*100)), nil
	}

	s.currentDish = pred.Label
	rec, _ := s.deps.KnowledgeBase.Lookup(pred.Label)
	intro := responder.Introduce(pred.Label, pred.Confidence, rec, s.pickFunFact())
	return s.appendMessage(RoleAssistant, KindText, intro), nil
}

// Ask answers a question. Without an identified dish it replies with the
// greeting; the state never changes.
func (s *Session) Ask(question string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendMessage(RoleUser, KindText, question)

	// A gram amount in a question becomes the session's weight.
	if g := nutrition.ParseQuantity(question).Grams; g > 0 {
		s.weight = g
	}

	if s.state() == StateNoImage {
		return s.appendMessage(RoleAssistant, KindText, greetingMessage)
	}

	rec, _ := s.deps.KnowledgeBase.Lookup(s.currentDish)
	reply := s.deps.Responder.Respond(s.currentDish, question, rec, responder.NutritionOptions{
		WeightGrams: s.weight,
		UsePortion:  s.usePortion,
	})
	return s.appendMessage(RoleAssistant, KindText, reply)
}

// Reset clears the identified dish so a new photo can be classified.
func (s *Session) Reset() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDish = ""
	return s.appendMessage(RoleAssistant, KindText, "🔄 Ready for a new dish! Send me another photo.")
}

// SetWeight sets the default weight used for nutrition answers.
func (s *Session) SetWeight(grams float64) (Message, error) {
	if grams <= 0 {
		return Message{}, fmt.Errorf("weight must be positive, got %v", grams)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weight = grams
	return s.appendMessage(RoleAssistant, KindText, fmt.Sprintf("⚖️ Nutrition answers now use %g gram.", grams)), nil
}

// SetPortionMode toggles per-portion nutrition for prepared dishes.
func (s *Session) SetPortionMode(on bool) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usePortion = on
	if on {
		return s.appendMessage(RoleAssistant, KindText, "🍛 Nutrition answers now use standard portions.")
	}
	return s.appendMessage(RoleAssistant, KindText, "⚖️ Nutrition answers now use weight.")
}

// Preferences returns the last requested nutrition weight and the portion
// toggle.
func (s *Session) Preferences() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weight, s.usePortion
}

func (s *Session) pickFunFact() func(int) int {
	if s.deps.PickFunFact != nil {
		return s.deps.PickFunFact
	}
	return rand.Intn
}
