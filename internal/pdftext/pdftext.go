// Package pdftext extracts plain text from PDF receipts.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// FromBytes extracts the plain text of an in-memory PDF document. An empty
// result is returned as an error: a receipt with no extractable text cannot
// be parsed downstream.
func FromBytes(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("FromBytes: open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("FromBytes: extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("FromBytes: read text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("FromBytes: document contains no extractable text")
	}
	return text, nil
}

// FromFile extracts the plain text of a PDF on disk.
func FromFile(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("FromFile: open %s: %w", path, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("FromFile: extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("FromFile: read text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("FromFile: document contains no extractable text")
	}
	return text, nil
}
