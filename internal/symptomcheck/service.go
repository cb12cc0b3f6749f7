package symptomcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/eclinicgh/telehealth-platform/internal/observability/metrics"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

var symptomTracer = otel.Tracer("eclinic.internal.symptomcheck")

// ErrDescriptionTooShort is returned when the symptom description is too
// brief to triage.
var ErrDescriptionTooShort = errors.New("symptomcheck: describe your symptoms in at least 10 characters")

// ErrUnusableSuggestion is returned when the model reply cannot be used.
var ErrUnusableSuggestion = errors.New("symptomcheck: could not produce a suggestion")

// Specialties the checker may route to. The model must pick from this list;
// anything else falls back to General Practitioner.
var Specialties = []string{
	"General Practitioner",
	"Cardiologist",
	"Neurologist",
	"Pediatrician",
	"Dermatologist",
	"Orthopedist",
	"Gynecologist",
	"Psychiatrist",
}

// Disclaimer accompanies every suggestion. It is enforced server-side, never
// left to the model.
const Disclaimer = "This is not a medical diagnosis. Please consult a qualified health professional."

const minDescriptionLen = 10

const systemPrompt = `You are a triage assistant for a telehealth service in Ghana.
Given a patient's symptom description, suggest which specialist they should book.
Respond with JSON only, in the form:
{"specialty": "<one of the allowed specialties>", "rationale": "<one or two plain sentences>"}
Do not diagnose. Do not suggest treatments or medication.`

// Suggestion is the checker's answer.
type Suggestion struct {
	Specialty  string `json:"specialty"`
	Rationale  string `json:"rationale"`
	Disclaimer string `json:"disclaimer"`
}

// Service turns free-text symptom descriptions into a specialist suggestion.
type Service struct {
	llm     LLMClient
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewService constructs a symptom check service.
func NewService(llm LLMClient, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if llm == nil {
		panic("symptomcheck: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{llm: llm, metrics: m, logger: logger}
}

// Check asks the model for a specialist suggestion. The reply is validated
// against the allowed specialty list and the disclaimer is always attached
// here.
func (s *Service) Check(ctx context.Context, description string) (*Suggestion, error) {
	ctx, span := symptomTracer.Start(ctx, "symptomcheck.check")
	defer span.End()

	description = strings.TrimSpace(description)
	if len(description) < minDescriptionLen {
		s.metrics.ObserveSymptomCheck("rejected")
		return nil, ErrDescriptionTooShort
	}

	prompt := fmt.Sprintf("Allowed specialties: %s.\n\nPatient's description: %q",
		strings.Join(Specialties, ", "), description)

	raw, err := s.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSymptomCheck("error")
		s.logger.Error("symptom check completion failed", "error", err)
		return nil, ErrUnusableSuggestion
	}

	suggestion, err := parseSuggestion(raw)
	if err != nil {
		s.metrics.ObserveSymptomCheck("unparseable")
		s.logger.Warn("symptom check reply was unusable", "error", err)
		return nil, ErrUnusableSuggestion
	}

	s.metrics.ObserveSymptomCheck("ok")
	return suggestion, nil
}

// parseSuggestion decodes the model reply, tolerating a fenced code block,
// and normalizes the specialty against the allowed list.
func parseSuggestion(raw string) (*Suggestion, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		return nil, fmt.Errorf("symptomcheck: failed to decode model reply: %w", err)
	}
	if strings.TrimSpace(suggestion.Rationale) == "" {
		return nil, errors.New("symptomcheck: model reply missing rationale")
	}

	matched := false
	for _, specialty := range Specialties {
		if strings.EqualFold(strings.TrimSpace(suggestion.Specialty), specialty) {
			suggestion.Specialty = specialty
			matched = true
			break
		}
	}
	if !matched {
		suggestion.Specialty = "General Practitioner"
	}

	suggestion.Disclaimer = Disclaimer
	return &suggestion, nil
}
