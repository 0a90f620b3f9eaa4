package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// CategorySum is one row of a per-category total.
type CategorySum struct {
	Category string   `bigquery:"category"`
	Total    *big.Rat `bigquery:"total"`
}

// DateSum is one row of a per-day total.
type DateSum struct {
	Day   civil.Date `bigquery:"day"`
	Total *big.Rat   `bigquery:"total"`
}

// MonthlySum is one row of a per-month income/expense aggregate.
type MonthlySum struct {
	Month   string   `bigquery:"month"` // YYYY-MM
	Income  *big.Rat `bigquery:"income"`
	Expense *big.Rat `bigquery:"expense"`
}

// SumByCategoryWithClient totals a user's transactions of one type per
// category, largest first.
func SumByCategoryWithClient(ctx context.Context, client *bigquery.Client, userID, txType string, startDate, endDate time.Time) ([]*CategorySum, error) {
	query := fmt.Sprintf(`
		SELECT
			category,
			SUM(amount) AS total
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		  AND type = @type
		  AND txn_date >= @start_date
		  AND txn_date <= @end_date
		GROUP BY category
		ORDER BY total DESC
	`, projectID, datasetID, transactionsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "type", Value: txType},
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SumByCategory: query read: %w", err)
	}

	var rows []*CategorySum
	for {
		var r CategorySum
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SumByCategory: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// SumExpensesByDateWithClient totals a user's expenses per day, oldest first.
// Days without transactions are absent; the analytics layer zero-fills them.
func SumExpensesByDateWithClient(ctx context.Context, client *bigquery.Client, userID string, startDate, endDate time.Time) ([]*DateSum, error) {
	query := fmt.Sprintf(`
		SELECT
			txn_date AS day,
			SUM(amount) AS total
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		  AND type = 'expense'
		  AND txn_date >= @start_date
		  AND txn_date <= @end_date
		GROUP BY day
		ORDER BY day ASC
	`, projectID, datasetID, transactionsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SumExpensesByDate: query read: %w", err)
	}

	var rows []*DateSum
	for {
		var r DateSum
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SumExpensesByDate: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// SumMonthlyWithClient aggregates a user's income and expenses per calendar
// month, oldest first.
func SumMonthlyWithClient(ctx context.Context, client *bigquery.Client, userID string, startDate, endDate time.Time) ([]*MonthlySum, error) {
	query := fmt.Sprintf(`
		SELECT
			FORMAT_DATE('%%Y-%%m', txn_date) AS month,
			SUM(IF(type = 'income', amount, 0)) AS income,
			SUM(IF(type = 'expense', amount, 0)) AS expense
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		  AND txn_date >= @start_date
		  AND txn_date <= @end_date
		GROUP BY month
		ORDER BY month ASC
	`, projectID, datasetID, transactionsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SumMonthly: query read: %w", err)
	}

	var rows []*MonthlySum
	for {
		var r MonthlySum
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SumMonthly: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
