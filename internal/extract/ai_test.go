package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/domain"
)

// mockModel is a TextModel returning a canned response or error.
type mockModel struct {
	response string
	err      error
	prompts  []string
}

func (m *mockModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestExtractor(m TextModel) *Extractor {
	return NewExtractor(m, zerolog.Nop())
}

func TestExtractReceiptUsesValidModelOutput(t *testing.T) {
	model := &mockModel{
		response: `[
			{"description": "Cappuccino", "amount": 150, "type": "expense", "category": "Food & Dining"},
			{"description": "Monthly salary", "amount": 50000, "type": "income", "category": "Salary"}
		]`,
	}
	e := newTestExtractor(model)

	items := e.ExtractReceipt(context.Background(), "irrelevant raw text")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Category != "Food & Dining" || items[0].Amount != 150 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Type != domain.TypeIncome || items[1].Category != "Salary" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestExtractReceiptStripsCodeFencesAndProse(t *testing.T) {
	model := &mockModel{
		response: "Here is the result:\n```json\n[{\"description\": \"Coffee\", \"amount\": 120, \"type\": \"expense\", \"category\": \"Food & Dining\"}]\n```\nLet me know if you need more.",
	}
	e := newTestExtractor(model)

	items := e.ExtractReceipt(context.Background(), "x")
	if len(items) != 1 || items[0].Description != "Coffee" {
		t.Fatalf("got %+v, want single Coffee item", items)
	}
}

func TestExtractReceiptDropsInvalidElementsIndividually(t *testing.T) {
	model := &mockModel{
		response: `[
			{"description": "Coffee", "amount": 120, "type": "expense", "category": "Food & Dining"},
			{"description": "Bogus", "amount": 50, "type": "expense", "category": "NotARealCategory"},
			{"description": "", "amount": 10, "type": "expense", "category": "Groceries"},
			{"description": "Too big", "amount": 150000, "type": "expense", "category": "Electronics"},
			{"description": "Wrong side", "amount": 40, "type": "income", "category": "Groceries"}
		]`,
	}
	e := newTestExtractor(model)

	items := e.ExtractReceipt(context.Background(), "x")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (only the valid element): %+v", len(items), items)
	}
	if items[0].Description != "Coffee" {
		t.Errorf("surviving item = %+v, want Coffee", items[0])
	}
}

func TestExtractReceiptFallsBackWhenAllElementsInvalid(t *testing.T) {
	model := &mockModel{
		response: `[{"description": "Coffee", "amount": 120, "type": "expense", "category": "NotARealCategory"}]`,
	}
	e := newTestExtractor(model)

	// The only element is invalid, so the whole AI attempt is discarded and
	// the line extractor runs on the original raw text.
	items := e.ExtractReceipt(context.Background(), "Coffee 120")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 from line extractor: %+v", len(items), items)
	}
	if items[0].Description != "Coffee" || items[0].Amount != 120 {
		t.Errorf("fallback item = %+v", items[0])
	}
}

func TestExtractReceiptEmptyModelArrayStaysEmpty(t *testing.T) {
	model := &mockModel{response: `[]`}
	e := newTestExtractor(model)

	items := e.ExtractReceipt(context.Background(), "Coffee 120")
	if len(items) != 0 {
		t.Errorf("model said no items qualify, got %+v", items)
	}
}

func TestExtractReceiptFallsBackOnModelError(t *testing.T) {
	model := &mockModel{err: errors.New("connection refused")}
	e := newTestExtractor(model)

	raw := "Coffee Shop\nCappuccino Rs. 150\nSandwich Rs. 200\nSubtotal Rs. 350\nGST Rs. 17.50\nTotal Rs. 367.50"
	items := e.ExtractReceipt(context.Background(), raw)

	if len(items) != 2 {
		t.Fatalf("got %d items, want exactly 2: %+v", len(items), items)
	}
	if items[0].Description != "Cappuccino" || items[0].Amount != 150 || items[0].Type != domain.TypeExpense {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Description != "Sandwich" || items[1].Amount != 200 || items[1].Type != domain.TypeExpense {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestExtractReceiptFallsBackOnGarbageResponse(t *testing.T) {
	model := &mockModel{response: "I could not find any transactions, sorry!"}
	e := newTestExtractor(model)

	items := e.ExtractReceipt(context.Background(), "Coffee 120")
	if len(items) != 1 || items[0].Description != "Coffee" {
		t.Fatalf("got %+v, want line extractor result", items)
	}
}

func TestExtractReceiptNilModelGoesStraightToLines(t *testing.T) {
	e := newTestExtractor(nil)

	items := e.ExtractReceipt(context.Background(), "Coffee 120")
	if len(items) != 1 || items[0].Description != "Coffee" {
		t.Fatalf("got %+v, want line extractor result", items)
	}
}

func TestCategorizeDescriptionAI(t *testing.T) {
	model := &mockModel{response: `{"type": "expense", "category": "Transportation"}`}
	e := newTestExtractor(model)

	got, err := e.CategorizeDescription(context.Background(), "uber to office", domain.TypeExpense)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provenance != ProvenanceAI {
		t.Errorf("provenance = %q, want ai", got.Provenance)
	}
	if got.Category != "Transportation" || got.Type != domain.TypeExpense {
		t.Errorf("got %+v", got)
	}
	if got.Message != "AI categorization" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestCategorizeDescriptionInvalidAIOutputFallsBackLocally(t *testing.T) {
	model := &mockModel{response: `{"type": "expense", "category": "NotARealCategory"}`}
	e := newTestExtractor(model)

	got, err := e.CategorizeDescription(context.Background(), "coffee with friends", domain.TypeExpense)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provenance != ProvenanceLocalFallback {
		t.Errorf("provenance = %q, want local-fallback", got.Provenance)
	}
	if got.Category != "Food & Dining" {
		t.Errorf("category = %q, want keyword match", got.Category)
	}
	if got.Message != "local categorization" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestCategorizeDescriptionOfflineFallback(t *testing.T) {
	model := &mockModel{err: errors.New("timeout")}
	e := newTestExtractor(model)

	got, err := e.CategorizeDescription(context.Background(), "uber to office", domain.TypeExpense)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provenance != ProvenanceOfflineFallback {
		t.Errorf("provenance = %q, want offline-fallback", got.Provenance)
	}
	if got.Category != "Transportation" {
		t.Errorf("category = %q", got.Category)
	}
	if got.Message != "offline categorization" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestCategorizeDescriptionRejectsEmptyInputBeforeRemoteCall(t *testing.T) {
	model := &mockModel{response: `{"type": "expense", "category": "Groceries"}`}
	e := newTestExtractor(model)

	_, err := e.CategorizeDescription(context.Background(), "   ", domain.TypeExpense)
	if err == nil {
		t.Fatal("expected error for empty description")
	}
	if len(model.prompts) != 0 {
		t.Errorf("remote call was attempted for empty input")
	}
}

func TestCategorizeDescriptionMismatchedVocabularyFallsBack(t *testing.T) {
	// Groceries is an expense category; claiming it as income must fail
	// validation.
	model := &mockModel{response: `{"type": "income", "category": "Groceries"}`}
	e := newTestExtractor(model)

	got, err := e.CategorizeDescription(context.Background(), "weekly groceries", domain.TypeExpense)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provenance != ProvenanceLocalFallback {
		t.Errorf("provenance = %q, want local-fallback", got.Provenance)
	}
}
