package domain

import (
	"time"
)

// Type is the direction of a transaction.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Valid reports whether t is one of the two known transaction types.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Source records how a transaction entered the system.
type Source string

const (
	SourceManual  Source = "manual"
	SourceReceipt Source = "receipt"
	SourceAI      Source = "ai"
)

// Transaction is one income or expense record. Instances produced by the
// extraction pipeline are constructed fresh per call and never mutated after
// hand-off to persistence.
type Transaction struct {
	TransactionID string    `json:"transactionId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Type          Type      `json:"type"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Source        Source    `json:"source,omitempty"`
	CreatedTS     time.Time `json:"createdTs,omitempty"`
}

// User is a registered account holder.
type User struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedTS    time.Time `json:"createdTs"`
}
