package bigquery

import (
	"time"

	"github.com/pfalabs/finance-assistant/internal/domain"
)

type UserRow struct {
	UserID       string    `bigquery:"user_id"`       // REQUIRED
	Username     string    `bigquery:"username"`      // REQUIRED, unique by convention
	Email        string    `bigquery:"email"`         // REQUIRED, unique by convention
	PasswordHash string    `bigquery:"password_hash"` // REQUIRED
	CreatedTS    time.Time `bigquery:"created_ts"`    // REQUIRED
}

// UserRowFromDomain converts a domain user to its storage row.
func UserRowFromDomain(u *domain.User) *UserRow {
	return &UserRow{
		UserID:       u.UserID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedTS:    u.CreatedTS,
	}
}

// ToDomain converts a storage row back to a domain user.
func (r *UserRow) ToDomain() *domain.User {
	return &domain.User{
		UserID:       r.UserID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedTS:    r.CreatedTS,
	}
}
