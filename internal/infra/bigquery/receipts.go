package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Receipt parsing statuses.
const (
	ReceiptStatusPending   = "PENDING"
	ReceiptStatusProcessed = "PROCESSED"
	ReceiptStatusFailed    = "FAILED"
)

type ReceiptRow struct {
	ReceiptID        string `bigquery:"receipt_id"` // REQUIRED
	UserID           string `bigquery:"user_id"`    // REQUIRED
	GCSURI           string `bigquery:"gcs_uri"`    // REQUIRED
	OriginalFilename string `bigquery:"original_filename"`
	ChecksumSHA256   string `bigquery:"checksum_sha256"`

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	ParsingStatus  string              `bigquery:"parsing_status"` // PENDING | PROCESSED | FAILED
	ParsingError   bigquery.NullString `bigquery:"parsing_error"`  // NULLABLE
	ItemsExtracted bigquery.NullInt64  `bigquery:"items_extracted"`
}
