package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertReceipt inserts a single ReceiptRow.
func InsertReceipt(ctx context.Context, row *ReceiptRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertReceipt: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertReceiptWithClient(ctx, client, row)
}

// InsertReceiptWithClient inserts a single ReceiptRow using the provided
// client.
func InsertReceiptWithClient(ctx context.Context, client *bigquery.Client, row *ReceiptRow) error {
	inserter := client.Dataset(datasetID).Table(receiptsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReceipt: inserting row: %w", err)
	}
	return nil
}

// MarkReceiptProcessedWithClient records a finished parse: final status,
// processing timestamp and how many items were durably persisted.
func MarkReceiptProcessedWithClient(ctx context.Context, client *bigquery.Client, receiptID string, itemsExtracted int) error {
	query := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET parsing_status = @status,
		    processed_ts = @processed_ts,
		    items_extracted = @items
		WHERE receipt_id = @receipt_id
	`, projectID, datasetID, receiptsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: ReceiptStatusProcessed},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "items", Value: int64(itemsExtracted)},
		{Name: "receipt_id", Value: receiptID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkReceiptProcessed: run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkReceiptProcessed: wait: %w", err)
	}
	if status.Err() != nil {
		return fmt.Errorf("MarkReceiptProcessed: job: %w", status.Err())
	}
	return nil
}

// MarkReceiptFailedWithClient records a parse failure. Best effort: the
// original error matters more than the bookkeeping one, so failures here are
// returned but callers typically just log them.
func MarkReceiptFailedWithClient(ctx context.Context, client *bigquery.Client, receiptID string, parseErr error) error {
	query := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET parsing_status = @status,
		    processed_ts = @processed_ts,
		    parsing_error = @parsing_error
		WHERE receipt_id = @receipt_id
	`, projectID, datasetID, receiptsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: ReceiptStatusFailed},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "parsing_error", Value: parseErr.Error()},
		{Name: "receipt_id", Value: receiptID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkReceiptFailed: run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkReceiptFailed: wait: %w", err)
	}
	if status.Err() != nil {
		return fmt.Errorf("MarkReceiptFailed: job: %w", status.Err())
	}
	return nil
}

// FindReceiptByChecksumWithClient retrieves a receipt by its SHA-256
// checksum. Returns nil if no receipt with the given checksum exists.
func FindReceiptByChecksumWithClient(ctx context.Context, client *bigquery.Client, userID, checksum string) (*ReceiptRow, error) {
	query := fmt.Sprintf(`
		SELECT
			receipt_id,
			user_id,
			gcs_uri,
			original_filename,
			checksum_sha256,
			upload_ts,
			processed_ts,
			parsing_status,
			parsing_error,
			items_extracted
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		  AND checksum_sha256 = @checksum
		LIMIT 1
	`, projectID, datasetID, receiptsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "checksum", Value: checksum},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindReceiptByChecksum: reading query: %w", err)
	}

	var row ReceiptRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindReceiptByChecksum: reading row: %w", err)
	}
	return &row, nil
}
