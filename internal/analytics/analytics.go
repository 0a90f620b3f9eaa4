// Package analytics turns raw summary rows into the shapes the dashboard
// charts expect. Everything here is pure; sums go through decimal so float
// drift never creeps into totals.
package analytics

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

const dayFormat = "2006-01-02"

// CategoryTotal is one slice of a per-category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// DailyTotal is one bucket of the daily spend chart.
type DailyTotal struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Total float64 `json:"total"`
}

// MonthlyTotal is one bucket of the monthly overview.
type MonthlyTotal struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// CategoryTotals converts summary rows, preserving their order.
func CategoryTotals(rows []*bigquery.CategorySum) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryTotal{
			Category: r.Category,
			Total:    ratToFloat(r.Total),
		})
	}
	return out
}

// ZeroFillDaily produces one bucket per calendar day from start through end
// inclusive, in ascending order. Days the query returned no row for get an
// explicit zero so chart axes stay continuous.
func ZeroFillDaily(rows []*bigquery.DateSum, start, end time.Time) []DailyTotal {
	byDay := make(map[string]float64, len(rows))
	for _, r := range rows {
		byDay[r.Day.String()] = ratToFloat(r.Total)
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var out []DailyTotal
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayFormat)
		out = append(out, DailyTotal{Date: key, Total: byDay[key]})
	}
	return out
}

// MonthlyTotals adds the net column to per-month aggregates.
func MonthlyTotals(rows []*bigquery.MonthlySum) []MonthlyTotal {
	out := make([]MonthlyTotal, 0, len(rows))
	for _, r := range rows {
		income := ratToDecimal(r.Income)
		expense := ratToDecimal(r.Expense)
		out = append(out, MonthlyTotal{
			Month:   r.Month,
			Income:  income.InexactFloat64(),
			Expense: expense.InexactFloat64(),
			Net:     income.Sub(expense).InexactFloat64(),
		})
	}
	return out
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 2)
}

func ratToFloat(r *big.Rat) float64 {
	return ratToDecimal(r).InexactFloat64()
}
