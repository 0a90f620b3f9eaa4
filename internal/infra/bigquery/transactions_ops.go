package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// TransactionQuery narrows a per-user transaction listing. Zero dates mean
// unbounded; Limit <= 0 means no page cap.
type TransactionQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// InsertTransaction inserts a single TransactionRow.
func InsertTransaction(ctx context.Context, row *TransactionRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertTransaction: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertTransactionWithClient(ctx, client, row)
}

// InsertTransactionWithClient inserts a single TransactionRow using the
// provided client. The pipeline persists extracted items one at a time so a
// bad row never drags down the rest of the batch.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, row *TransactionRow) error {
	inserter := client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// InsertTransactionsWithClient inserts a batch of TransactionRow using the
// provided client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// QueryUserTransactionsWithClient lists a user's transactions newest first,
// optionally bounded by date and paginated.
func QueryUserTransactionsWithClient(ctx context.Context, client *bigquery.Client, userID string, filter TransactionQuery) ([]*TransactionRow, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `
		SELECT
			transaction_id,
			user_id,
			type,
			amount,
			category,
			description,
			txn_date,
			source,
			receipt_id,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
	`, projectID, datasetID, transactionsTable)

	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	if !filter.StartDate.IsZero() {
		b.WriteString(" AND txn_date >= @start_date")
		params = append(params, bigquery.QueryParameter{Name: "start_date", Value: filter.StartDate.Format(dateFormat)})
	}
	if !filter.EndDate.IsZero() {
		b.WriteString(" AND txn_date <= @end_date")
		params = append(params, bigquery.QueryParameter{Name: "end_date", Value: filter.EndDate.Format(dateFormat)})
	}
	b.WriteString(" ORDER BY txn_date DESC, created_ts DESC")
	if filter.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", filter.Offset)
		}
	}

	q := client.Query(b.String())
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryUserTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryUserTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ListUserCategoriesWithClient returns the distinct categories a user has
// actually recorded transactions under.
func ListUserCategoriesWithClient(ctx context.Context, client *bigquery.Client, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT category
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		ORDER BY category
	`, projectID, datasetID, transactionsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUserCategories: query read: %w", err)
	}

	var categories []string
	for {
		var row struct {
			Category string `bigquery:"category"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserCategories: iter next: %w", err)
		}
		categories = append(categories, row.Category)
	}

	return categories, nil
}
