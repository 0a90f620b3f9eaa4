package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// UserRepository is the persistence surface for registered users.
type UserRepository interface {
	InsertUser(ctx context.Context, row *UserRow) error
	FindUserByUsername(ctx context.Context, username string) (*UserRow, error)
	FindUserByEmail(ctx context.Context, email string) (*UserRow, error)
}

// TransactionRepository is the persistence surface for transactions and
// their aggregates.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, row *TransactionRow) error
	InsertTransactions(ctx context.Context, rows []*TransactionRow) error
	QueryUserTransactions(ctx context.Context, userID string, filter TransactionQuery) ([]*TransactionRow, error)
	ListUserCategories(ctx context.Context, userID string) ([]string, error)
	SumByCategory(ctx context.Context, userID, txType string, startDate, endDate time.Time) ([]*CategorySum, error)
	SumExpensesByDate(ctx context.Context, userID string, startDate, endDate time.Time) ([]*DateSum, error)
	SumMonthly(ctx context.Context, userID string, startDate, endDate time.Time) ([]*MonthlySum, error)
}

// ReceiptRepository is the persistence surface for uploaded receipts.
type ReceiptRepository interface {
	InsertReceipt(ctx context.Context, row *ReceiptRow) error
	MarkReceiptProcessed(ctx context.Context, receiptID string, itemsExtracted int) error
	MarkReceiptFailed(ctx context.Context, receiptID string, parseErr error) error
	FindReceiptByChecksum(ctx context.Context, userID, checksum string) (*ReceiptRow, error)
}

// Repository implements all three repository interfaces over one shared
// BigQuery client, so the API server and the worker hold a single connection.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a Repository with a shared BigQuery client.
func NewRepository(ctx context.Context) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertUser delegates to InsertUserWithClient with the shared client.
func (r *Repository) InsertUser(ctx context.Context, row *UserRow) error {
	return InsertUserWithClient(ctx, r.client, row)
}

// FindUserByUsername delegates to FindUserByUsernameWithClient with the shared client.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*UserRow, error) {
	return FindUserByUsernameWithClient(ctx, r.client, username)
}

// FindUserByEmail delegates to FindUserByEmailWithClient with the shared client.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*UserRow, error) {
	return FindUserByEmailWithClient(ctx, r.client, email)
}

// InsertTransaction delegates to InsertTransactionWithClient with the shared client.
func (r *Repository) InsertTransaction(ctx context.Context, row *TransactionRow) error {
	return InsertTransactionWithClient(ctx, r.client, row)
}

// InsertTransactions delegates to InsertTransactionsWithClient with the shared client.
func (r *Repository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	return InsertTransactionsWithClient(ctx, r.client, rows)
}

// QueryUserTransactions delegates to QueryUserTransactionsWithClient with the shared client.
func (r *Repository) QueryUserTransactions(ctx context.Context, userID string, filter TransactionQuery) ([]*TransactionRow, error) {
	return QueryUserTransactionsWithClient(ctx, r.client, userID, filter)
}

// ListUserCategories delegates to ListUserCategoriesWithClient with the shared client.
func (r *Repository) ListUserCategories(ctx context.Context, userID string) ([]string, error) {
	return ListUserCategoriesWithClient(ctx, r.client, userID)
}

// SumByCategory delegates to SumByCategoryWithClient with the shared client.
func (r *Repository) SumByCategory(ctx context.Context, userID, txType string, startDate, endDate time.Time) ([]*CategorySum, error) {
	return SumByCategoryWithClient(ctx, r.client, userID, txType, startDate, endDate)
}

// SumExpensesByDate delegates to SumExpensesByDateWithClient with the shared client.
func (r *Repository) SumExpensesByDate(ctx context.Context, userID string, startDate, endDate time.Time) ([]*DateSum, error) {
	return SumExpensesByDateWithClient(ctx, r.client, userID, startDate, endDate)
}

// SumMonthly delegates to SumMonthlyWithClient with the shared client.
func (r *Repository) SumMonthly(ctx context.Context, userID string, startDate, endDate time.Time) ([]*MonthlySum, error) {
	return SumMonthlyWithClient(ctx, r.client, userID, startDate, endDate)
}

// InsertReceipt delegates to InsertReceiptWithClient with the shared client.
func (r *Repository) InsertReceipt(ctx context.Context, row *ReceiptRow) error {
	return InsertReceiptWithClient(ctx, r.client, row)
}

// MarkReceiptProcessed delegates to MarkReceiptProcessedWithClient with the shared client.
func (r *Repository) MarkReceiptProcessed(ctx context.Context, receiptID string, itemsExtracted int) error {
	return MarkReceiptProcessedWithClient(ctx, r.client, receiptID, itemsExtracted)
}

// MarkReceiptFailed delegates to MarkReceiptFailedWithClient with the shared client.
func (r *Repository) MarkReceiptFailed(ctx context.Context, receiptID string, parseErr error) error {
	return MarkReceiptFailedWithClient(ctx, r.client, receiptID, parseErr)
}

// FindReceiptByChecksum delegates to FindReceiptByChecksumWithClient with the shared client.
func (r *Repository) FindReceiptByChecksum(ctx context.Context, userID, checksum string) (*ReceiptRow, error) {
	return FindReceiptByChecksumWithClient(ctx, r.client, userID, checksum)
}
