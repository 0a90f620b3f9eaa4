// Package receiptstore archives uploaded receipt PDFs in Google Cloud
// Storage and fetches them back for parsing.
package receiptstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Store is the storage surface the upload handler and the pipeline depend
// on. It is an interface so tests can swap in an in-memory implementation.
type Store interface {
	ArchiveReceipt(ctx context.Context, userID, filename string, data []byte) (gcsURI string, err error)
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStore implements Store against a single bucket. It assumes Application
// Default Credentials are configured.
type GCSStore struct {
	bucket string
}

// NewGCSStore creates a GCS-backed store for the given bucket.
func NewGCSStore(bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: empty bucket name")
	}
	return &GCSStore{bucket: bucket}, nil
}

// ArchiveReceipt uploads raw receipt bytes under a per-user, per-day object
// name and returns the resulting gs:// URI.
func (s *GCSStore) ArchiveReceipt(ctx context.Context, userID, filename string, data []byte) (string, error) {
	objectName := fmt.Sprintf("receipts/%s/%s/%s-%s",
		userID, time.Now().Format("2006/01/02"), uuid.New().String(), path.Base(filename))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("ArchiveReceipt: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("ArchiveReceipt: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ArchiveReceipt: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// Fetch downloads the receipt bytes from the given GCS URI.
func (s *GCSStore) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// splitGCSURI splits a gs://bucket/object URI into bucket and object path.
func splitGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI extracts the object filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
