// Package extract turns raw receipt text into candidate transactions. The
// AI-assisted path asks a generative model for structured output and
// validates it against the category vocabulary; the line extractor is the
// deterministic fallback used whenever the model is unavailable or returns
// something unusable.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfalabs/finance-assistant/internal/classify"
	"github.com/pfalabs/finance-assistant/internal/domain"
)

// amountPattern matches a monetary amount with an optional currency marker
// (rupee sign, "rs", "rs." or dollar sign). Matching is case-insensitive.
var amountPattern = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\$)?\s*([0-9]+(?:\.[0-9]{1,2})?)`)

// reservedWords mark summary and tax lines that are never line items.
var reservedWords = []string{"total", "subtotal", "gst", "tax"}

const minDescriptionLen = 3

// ExtractLines scans raw receipt text for priced line items and classifies
// each via the local keyword classifier. Items come out in source-line order;
// zero items is a normal result, not an error.
func ExtractLines(rawText string) []domain.Transaction {
	var items []domain.Transaction
	var prevLine string
	now := time.Now()

	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if containsReservedWord(lower) {
			prevLine = line
			continue
		}

		start, end, amount, ok := findAmount(line)
		if !ok {
			prevLine = line
			continue
		}
		if amount.Sign() <= 0 || amount.Cmp(maxLineItemAmount) >= 0 {
			prevLine = line
			continue
		}

		// Cut the match out at its own position; the same token may also
		// appear earlier in the line as part of the description.
		desc := strings.TrimSpace(line[:start] + line[end:])
		desc = strings.Trim(desc, " -:–")
		if len(desc) < minDescriptionLen {
			if prevLine != "" {
				desc = prevLine
			} else {
				desc = fmt.Sprintf("Item %d", len(items)+1)
			}
		}

		res := classify.Classify(desc, domain.TypeExpense)
		items = append(items, domain.Transaction{
			Type:        res.Type,
			Amount:      amount.InexactFloat64(),
			Category:    res.Category,
			Description: desc,
			Date:        now,
			Source:      domain.SourceReceipt,
		})
		prevLine = line
	}

	return items
}

// findAmount locates the monetary amount on a line and reports where the
// match sits. Receipts put the price last, so the rightmost match wins over
// quantities earlier in the line.
func findAmount(line string) (start, end int, amount decimal.Decimal, ok bool) {
	all := amountPattern.FindAllStringSubmatchIndex(line, -1)
	if len(all) == 0 {
		return 0, 0, decimal.Zero, false
	}
	m := all[len(all)-1]
	amount, err := decimal.NewFromString(line[m[2]:m[3]])
	if err != nil {
		return 0, 0, decimal.Zero, false
	}
	return m[0], m[1], amount, true
}

func containsReservedWord(lower string) bool {
	for _, w := range reservedWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
