package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertUser inserts a single UserRow.
func InsertUser(ctx context.Context, row *UserRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertUser: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertUserWithClient(ctx, client, row)
}

// InsertUserWithClient inserts a single UserRow using the provided client.
func InsertUserWithClient(ctx context.Context, client *bigquery.Client, row *UserRow) error {
	inserter := client.Dataset(datasetID).Table(usersTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertUser: inserting row: %w", err)
	}
	return nil
}

// FindUserByUsername retrieves a user by username.
// Returns nil if no such user exists.
func FindUserByUsername(ctx context.Context, username string) (*UserRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("FindUserByUsername: bigquery client: %w", err)
	}
	defer client.Close()

	return FindUserByUsernameWithClient(ctx, client, username)
}

// FindUserByUsernameWithClient retrieves a user by username using the
// provided client.
func FindUserByUsernameWithClient(ctx context.Context, client *bigquery.Client, username string) (*UserRow, error) {
	return findUser(ctx, client, "username", username)
}

// FindUserByEmailWithClient retrieves a user by email using the provided
// client. Returns nil if no such user exists.
func FindUserByEmailWithClient(ctx context.Context, client *bigquery.Client, email string) (*UserRow, error) {
	return findUser(ctx, client, "email", email)
}

func findUser(ctx context.Context, client *bigquery.Client, field, value string) (*UserRow, error) {
	query := fmt.Sprintf(`
		SELECT
			user_id,
			username,
			email,
			password_hash,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE %s = @value
		LIMIT 1
	`, projectID, datasetID, usersTable, field)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "value", Value: value},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("findUser: reading query: %w", err)
	}

	var row UserRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findUser: reading row: %w", err)
	}
	return &row, nil
}
