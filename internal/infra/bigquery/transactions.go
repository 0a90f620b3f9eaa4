package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pfalabs/finance-assistant/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	Type        string     `bigquery:"type"`     // REQUIRED: income | expense
	Amount      *big.Rat   `bigquery:"amount"`   // REQUIRED NUMERIC
	Category    string     `bigquery:"category"` // REQUIRED, vocabulary member
	Description string     `bigquery:"description"`
	TxnDate     civil.Date `bigquery:"txn_date"` // REQUIRED
	Source      string     `bigquery:"source"`   // manual | receipt | ai

	ReceiptID string `bigquery:"receipt_id"` // NULLABLE-by-convention, "" when manual

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// TransactionRowFromDomain converts a domain transaction to its storage row.
// The float amount goes through decimal to keep NUMERIC precision exact at
// two places.
func TransactionRowFromDomain(tx *domain.Transaction, receiptID string) *TransactionRow {
	created := tx.CreatedTS
	if created.IsZero() {
		created = time.Now()
	}
	return &TransactionRow{
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        decimal.NewFromFloat(tx.Amount).Round(2).Rat(),
		Category:      tx.Category,
		Description:   tx.Description,
		TxnDate:       civil.DateOf(tx.Date),
		Source:        string(tx.Source),
		ReceiptID:     receiptID,
		CreatedTS:     created,
	}
}

// ToDomain converts a storage row back to a domain transaction.
func (r *TransactionRow) ToDomain() *domain.Transaction {
	var amount float64
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, 2).InexactFloat64()
	}
	return &domain.Transaction{
		TransactionID: r.TransactionID,
		UserID:        r.UserID,
		Type:          domain.Type(r.Type),
		Amount:        amount,
		Category:      r.Category,
		Description:   r.Description,
		Date:          r.TxnDate.In(time.UTC),
		Source:        domain.Source(r.Source),
		CreatedTS:     r.CreatedTS,
	}
}
