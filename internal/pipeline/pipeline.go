// Package pipeline runs the receipt ingestion chain: archive the PDF,
// record the receipt, extract text, turn it into transactions and persist
// them one by one.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/domain"
	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
	"github.com/pfalabs/finance-assistant/internal/pdftext"
	"github.com/pfalabs/finance-assistant/internal/receiptstore"
)

// TransactionExtractor converts raw receipt text into classified
// transactions. Implemented by extract.Extractor; mocked in tests.
type TransactionExtractor interface {
	ExtractReceipt(ctx context.Context, rawText string) []domain.Transaction
}

// Step is a single stage of the ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is threaded through every step of one receipt's ingestion.
type State struct {
	UserID   string
	Filename string
	PDFBytes []byte

	ReceiptID string
	GCSURI    string
	Checksum  string

	RawText      string
	Transactions []domain.Transaction

	// Persisted holds, in order, only the items durably written; per-item
	// failures drop an item from it without failing the pipeline.
	// PersistedCount is always len(Persisted).
	Persisted      []domain.Transaction
	PersistedCount int
}

// Deps are the external services the steps call.
type Deps struct {
	Receipts     infra.ReceiptRepository
	Transactions infra.TransactionRepository
	Store        receiptstore.Store
	Extractor    TransactionExtractor
	Log          zerolog.Logger

	// ExtractText overrides PDF text extraction; nil means pdftext.FromBytes.
	ExtractText func(data []byte) (string, error)
}

func (d *Deps) extractText(data []byte) (string, error) {
	if d.ExtractText != nil {
		return d.ExtractText(data)
	}
	return pdftext.FromBytes(data)
}

// ArchivePDFStep uploads the raw PDF to the receipt store.
type ArchivePDFStep struct{ deps *Deps }

func (s *ArchivePDFStep) Execute(ctx context.Context, state *State) error {
	uri, err := s.deps.Store.ArchiveReceipt(ctx, state.UserID, state.Filename, state.PDFBytes)
	if err != nil {
		return fmt.Errorf("ArchivePDFStep: %w", err)
	}
	state.GCSURI = uri
	return nil
}

// CreateReceiptStep records the uploaded receipt with status PENDING.
type CreateReceiptStep struct{ deps *Deps }

func (s *CreateReceiptStep) Execute(ctx context.Context, state *State) error {
	sum := sha256.Sum256(state.PDFBytes)
	state.Checksum = hex.EncodeToString(sum[:])
	state.ReceiptID = uuid.NewString()

	// Resubmitting the same file is allowed and will duplicate its
	// transactions; flag it so the duplicate is at least visible in the logs.
	if prev, err := s.deps.Receipts.FindReceiptByChecksum(ctx, state.UserID, state.Checksum); err == nil && prev != nil {
		s.deps.Log.Warn().
			Str("receipt_id", prev.ReceiptID).
			Str("checksum", state.Checksum).
			Msg("Receipt with identical content was uploaded before")
	}

	row := &infra.ReceiptRow{
		ReceiptID:        state.ReceiptID,
		UserID:           state.UserID,
		GCSURI:           state.GCSURI,
		OriginalFilename: state.Filename,
		ChecksumSHA256:   state.Checksum,
		UploadTS:         time.Now(),
		ParsingStatus:    infra.ReceiptStatusPending,
	}
	if err := s.deps.Receipts.InsertReceipt(ctx, row); err != nil {
		return fmt.Errorf("CreateReceiptStep: %w", err)
	}
	return nil
}

// FetchArchivedPDFStep downloads a previously archived receipt so it can be
// re-parsed without a fresh upload.
type FetchArchivedPDFStep struct{ deps *Deps }

func (s *FetchArchivedPDFStep) Execute(ctx context.Context, state *State) error {
	data, err := s.deps.Store.Fetch(ctx, state.GCSURI)
	if err != nil {
		return fmt.Errorf("FetchArchivedPDFStep: %w", err)
	}
	state.PDFBytes = data
	if state.Filename == "" {
		state.Filename = receiptstore.FilenameFromURI(state.GCSURI)
	}
	return nil
}

// ExtractTextStep pulls the plain text out of the PDF. This is the only
// stage whose failure fails the whole upload; everything after it degrades
// gracefully.
type ExtractTextStep struct{ deps *Deps }

func (s *ExtractTextStep) Execute(ctx context.Context, state *State) error {
	text, err := s.deps.extractText(state.PDFBytes)
	if err != nil {
		if markErr := s.deps.Receipts.MarkReceiptFailed(ctx, state.ReceiptID, err); markErr != nil {
			s.deps.Log.Error().Err(markErr).Str("receipt_id", state.ReceiptID).Msg("Failed to mark receipt failed")
		}
		return fmt.Errorf("ExtractTextStep: %w", err)
	}
	state.RawText = text
	return nil
}

// ExtractTransactionsStep runs the AI-with-fallback extraction chain. It
// never errors: an unusable model response already degraded to the line
// extractor inside the extractor itself.
type ExtractTransactionsStep struct{ deps *Deps }

func (s *ExtractTransactionsStep) Execute(ctx context.Context, state *State) error {
	items := s.deps.Extractor.ExtractReceipt(ctx, state.RawText)
	for i := range items {
		items[i].TransactionID = uuid.NewString()
		items[i].UserID = state.UserID
		items[i].CreatedTS = time.Now()
	}
	state.Transactions = items
	return nil
}

// PersistTransactionsStep writes each extracted item independently. One bad
// row is logged and skipped; the success count reflects only rows that were
// durably written.
type PersistTransactionsStep struct{ deps *Deps }

func (s *PersistTransactionsStep) Execute(ctx context.Context, state *State) error {
	state.Persisted = make([]domain.Transaction, 0, len(state.Transactions))
	for _, tx := range state.Transactions {
		row := infra.TransactionRowFromDomain(&tx, state.ReceiptID)
		if err := s.deps.Transactions.InsertTransaction(ctx, row); err != nil {
			s.deps.Log.Error().Err(err).
				Str("receipt_id", state.ReceiptID).
				Str("description", tx.Description).
				Msg("Failed to persist extracted item")
			continue
		}
		state.Persisted = append(state.Persisted, tx)
	}
	state.PersistedCount = len(state.Persisted)
	return nil
}

// MarkReceiptProcessedStep finalizes the receipt row with the persisted
// item count.
type MarkReceiptProcessedStep struct{ deps *Deps }

func (s *MarkReceiptProcessedStep) Execute(ctx context.Context, state *State) error {
	if err := s.deps.Receipts.MarkReceiptProcessed(ctx, state.ReceiptID, state.PersistedCount); err != nil {
		return fmt.Errorf("MarkReceiptProcessedStep: %w", err)
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewReceiptIngestionPipeline creates the standard 6-step chain for one
// uploaded receipt.
func NewReceiptIngestionPipeline(deps *Deps) *Pipeline {
	return New(
		&ArchivePDFStep{deps},
		&CreateReceiptStep{deps},
		&ExtractTextStep{deps},
		&ExtractTransactionsStep{deps},
		&PersistTransactionsStep{deps},
		&MarkReceiptProcessedStep{deps},
	)
}

// NewReceiptReparsePipeline re-runs extraction for an already archived
// receipt. State must carry the receipt ID, GCS URI and owning user.
func NewReceiptReparsePipeline(deps *Deps) *Pipeline {
	return New(
		&FetchArchivedPDFStep{deps},
		&ExtractTextStep{deps},
		&ExtractTransactionsStep{deps},
		&PersistTransactionsStep{deps},
		&MarkReceiptProcessedStep{deps},
	)
}
