package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfalabs/finance-assistant/internal/category"
	"github.com/pfalabs/finance-assistant/internal/domain"
)

// The two paths deliberately use different upper bounds: the model-validated
// path trusts larger receipts than the plain-text scanner does. Keep them
// separate; do not unify.
var (
	maxAIAmount       = decimal.NewFromInt(100000)
	maxLineItemAmount = decimal.NewFromInt(10000)
)

// cleanModelJSON strips markdown fences and surrounding prose from a model
// response, keeping the region between the outermost open and close markers.
func cleanModelJSON(raw, open, closing string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, open); start != -1 {
		if end := strings.LastIndex(s, closing); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// parseJSONArray extracts and parses the first well-formed JSON array in a
// model response that may wrap it in prose or code fences.
func parseJSONArray(raw string) ([]interface{}, error) {
	clean := cleanModelJSON(raw, "[", "]")

	var parsed interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parseJSONArray: unmarshal: %w", err)
	}

	arr, ok := parsed.([]interface{})
	if !ok {
		return nil, fmt.Errorf("parseJSONArray: top level is %T, want array", parsed)
	}
	return arr, nil
}

// parseJSONObject extracts and parses the first well-formed JSON object from
// a model response.
func parseJSONObject(raw string) (map[string]interface{}, error) {
	clean := cleanModelJSON(raw, "{", "}")

	var parsed interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parseJSONObject: unmarshal: %w", err)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("parseJSONObject: top level is %T, want object", parsed)
	}
	return obj, nil
}

// validateElement coerces one untyped model element into a transaction.
// The remote shape is never trusted: every field is checked individually and
// any mismatch rejects the element.
func validateElement(obj map[string]interface{}, now time.Time) (domain.Transaction, error) {
	desc, err := getStringField(obj, "description")
	if err != nil {
		return domain.Transaction{}, err
	}

	amount, err := getFloat64Field(obj, "amount")
	if err != nil {
		return domain.Transaction{}, err
	}
	d := decimal.NewFromFloat(amount)
	if d.Sign() <= 0 || d.Cmp(maxAIAmount) >= 0 {
		return domain.Transaction{}, fmt.Errorf("amount %v out of range", amount)
	}

	typeStr, err := getStringField(obj, "type")
	if err != nil {
		return domain.Transaction{}, err
	}
	txType := domain.Type(typeStr)
	if !txType.Valid() {
		return domain.Transaction{}, fmt.Errorf("unknown type %q", typeStr)
	}

	cat, err := getStringField(obj, "category")
	if err != nil {
		return domain.Transaction{}, err
	}
	if !categoryMatchesType(cat, txType) {
		return domain.Transaction{}, fmt.Errorf("category %q not valid for type %q", cat, txType)
	}

	return domain.Transaction{
		Type:        txType,
		Amount:      amount,
		Category:    cat,
		Description: desc,
		Date:        now,
		Source:      domain.SourceReceipt,
	}, nil
}

func categoryMatchesType(cat string, txType domain.Type) bool {
	if txType == domain.TypeIncome {
		return category.IsIncome(cat)
	}
	return category.IsExpense(cat)
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("required field %q is empty", key)
	}
	return s, nil
}

func getFloat64Field(m map[string]interface{}, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int: // unlikely from encoding/json, but harmless to support
		return float64(val), nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
