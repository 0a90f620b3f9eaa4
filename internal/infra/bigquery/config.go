// Package bigquery holds the BigQuery row types and repositories for users,
// transactions and receipts.
package bigquery

import "os"

const (
	usersTable        = "users"
	transactionsTable = "transactions"
	receiptsTable     = "receipts"
	dateFormat        = "2006-01-02"
)

var (
	projectID = envOr("BQ_PROJECT", "pfalabs-finance")
	datasetID = envOr("BQ_DATASET", "finance_assistant")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
