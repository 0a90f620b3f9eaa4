package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/pfalabs/finance-assistant/internal/classify"
	"github.com/pfalabs/finance-assistant/internal/domain"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// DefaultModelTimeout bounds every remote call. A call that has not returned
// by then is a failure and triggers the offline fallback; the extractor never
// blocks indefinitely on the model.
const DefaultModelTimeout = 30 * time.Second

// TextModel is the minimal surface of a generative text service. It enables
// mocking the remote model in tests.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiModel calls the Gemini API. The zero value is not usable; construct
// with NewGeminiModel.
type GeminiModel struct {
	model   string
	timeout time.Duration
}

// NewGeminiModel creates a Gemini-backed TextModel. Empty model or
// non-positive timeout fall back to the defaults.
func NewGeminiModel(model string, timeout time.Duration) *GeminiModel {
	if model == "" {
		model = DefaultModelName
	}
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	return &GeminiModel{model: model, timeout: timeout}
}

// GenerateText sends the prompt to Gemini and returns the raw response text.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("GenerateText: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return rawText, nil
}

// Provenance labels which path produced a categorization result.
type Provenance string

const (
	// ProvenanceAI means the remote model answered with a valid result.
	ProvenanceAI Provenance = "ai"
	// ProvenanceLocalFallback means the model answered but its output failed
	// validation, so the keyword classifier decided instead.
	ProvenanceLocalFallback Provenance = "local-fallback"
	// ProvenanceOfflineFallback means the remote call itself failed.
	ProvenanceOfflineFallback Provenance = "offline-fallback"
)

// statusMessage maps a provenance to the human-readable status surfaced to
// callers.
func statusMessage(p Provenance) string {
	switch p {
	case ProvenanceAI:
		return "AI categorization"
	case ProvenanceLocalFallback:
		return "local categorization"
	default:
		return "offline categorization"
	}
}

// Categorization is the outcome of classifying a single description.
type Categorization struct {
	Type       domain.Type `json:"type"`
	Category   string      `json:"category"`
	Provenance Provenance  `json:"provenance"`
	Message    string      `json:"message"`
}

// Extractor runs the AI-assisted extraction chain: attempt the model,
// validate its output, and fall through to the deterministic local path on
// any defined failure. The fallback is always total, never a partial merge.
type Extractor struct {
	model TextModel
	log   zerolog.Logger
}

// NewExtractor creates an extractor. A nil model means fully offline
// operation: every call goes straight to the local path.
func NewExtractor(model TextModel, log zerolog.Logger) *Extractor {
	return &Extractor{model: model, log: log}
}

// ExtractReceipt converts raw receipt text into classified transactions.
//
// Failure handling follows two distinct rules: an unusable response (call
// failure, unparsable JSON, or a non-empty array where every element is
// invalid) discards the AI attempt entirely and re-runs the line extractor
// on the original text; individually invalid elements inside an otherwise
// usable array are dropped one by one. A genuine model "[]" stays empty.
func (e *Extractor) ExtractReceipt(ctx context.Context, rawText string) []domain.Transaction {
	if e.model == nil {
		return ExtractLines(rawText)
	}

	raw, err := e.model.GenerateText(ctx, receiptPrompt(rawText))
	if err != nil {
		e.log.Warn().Err(err).Msg("Model call failed, using line extractor")
		return ExtractLines(rawText)
	}

	arr, err := parseJSONArray(raw)
	if err != nil {
		e.log.Warn().Err(err).Msg("Model response not parseable, using line extractor")
		return ExtractLines(rawText)
	}

	now := time.Now()
	valid := make([]domain.Transaction, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			e.log.Debug().Int("index", i).Msgf("Dropping element: %T is not an object", item)
			continue
		}
		tx, err := validateElement(obj, now)
		if err != nil {
			e.log.Debug().Int("index", i).Err(err).Msg("Dropping invalid element")
			continue
		}
		valid = append(valid, tx)
	}

	if len(arr) > 0 && len(valid) == 0 {
		e.log.Warn().Int("elements", len(arr)).Msg("All model elements invalid, using line extractor")
		return ExtractLines(rawText)
	}

	return valid
}

// CategorizeDescription classifies one user-entered description. The remote
// result is used only when both type and category validate against the
// vocabulary; otherwise the keyword classifier decides and the provenance
// tag records which fallback fired.
func (e *Extractor) CategorizeDescription(ctx context.Context, description string, hint domain.Type) (Categorization, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Categorization{}, fmt.Errorf("CategorizeDescription: empty description")
	}
	if !hint.Valid() {
		hint = domain.TypeExpense
	}

	if e.model == nil {
		return e.localResult(description, hint, ProvenanceOfflineFallback), nil
	}

	raw, err := e.model.GenerateText(ctx, descriptionPrompt(description, hint))
	if err != nil {
		e.log.Warn().Err(err).Msg("Model call failed, categorizing offline")
		return e.localResult(description, hint, ProvenanceOfflineFallback), nil
	}

	obj, err := parseJSONObject(raw)
	if err != nil {
		e.log.Debug().Err(err).Msg("Model categorization not parseable, using keyword classifier")
		return e.localResult(description, hint, ProvenanceLocalFallback), nil
	}

	typeStr, terr := getStringField(obj, "type")
	cat, cerr := getStringField(obj, "category")
	txType := domain.Type(typeStr)
	if terr != nil || cerr != nil || !txType.Valid() || !categoryMatchesType(cat, txType) {
		e.log.Debug().Str("type", typeStr).Str("category", cat).Msg("Model categorization invalid, using keyword classifier")
		return e.localResult(description, hint, ProvenanceLocalFallback), nil
	}

	return Categorization{
		Type:       txType,
		Category:   cat,
		Provenance: ProvenanceAI,
		Message:    statusMessage(ProvenanceAI),
	}, nil
}

func (e *Extractor) localResult(description string, hint domain.Type, p Provenance) Categorization {
	res := classify.Classify(description, hint)
	return Categorization{
		Type:       res.Type,
		Category:   res.Category,
		Provenance: p,
		Message:    statusMessage(p),
	}
}
