// Package classify maps free-text transaction descriptions to a
// (type, category) pair using the shared keyword table. It is the fully
// offline half of the categorization core; the AI-assisted path in
// internal/extract falls back to it on any remote failure.
package classify

import (
	"strings"

	"github.com/pfalabs/finance-assistant/internal/category"
	"github.com/pfalabs/finance-assistant/internal/domain"
)

// incomeTriggers and expenseTriggers decide the transaction type from free
// text. Income triggers are checked first and win when both are present.
var incomeTriggers = []string{
	"received", "credited", "income", "salary", "payment received", "deposit", "refund",
}

var expenseTriggers = []string{
	"paid", "debited", "expense", "purchase", "bought", "bill",
}

// InferType decides whether text describes income or an expense. When no
// trigger keyword is present, defaultType is returned. Pure function.
func InferType(text string, defaultType domain.Type) domain.Type {
	lower := strings.ToLower(text)
	for _, kw := range incomeTriggers {
		if strings.Contains(lower, kw) {
			return domain.TypeIncome
		}
	}
	for _, kw := range expenseTriggers {
		if strings.Contains(lower, kw) {
			return domain.TypeExpense
		}
	}
	return defaultType
}

// Result is a classification outcome. Category is always a member of the
// vocabulary set matching Type.
type Result struct {
	Type     domain.Type
	Category string
}

// Classify maps a description to a (type, category) pair. The keyword table
// is restricted to the vocabulary of the inferred type and scanned in
// vocabulary list order, so the result is deterministic regardless of map
// iteration order. Exhaustion yields Uncategorized; it is never an error.
func Classify(description string, hintType domain.Type) Result {
	txType := InferType(description, hintType)
	lower := strings.ToLower(description)

	vocabulary := category.ExpenseCategories
	if txType == domain.TypeIncome {
		vocabulary = category.IncomeCategories
	}

	for _, cat := range vocabulary {
		for _, kw := range category.Keywords[cat] {
			if strings.Contains(lower, kw) {
				return Result{Type: txType, Category: cat}
			}
		}
	}

	return Result{Type: txType, Category: category.Uncategorized}
}
