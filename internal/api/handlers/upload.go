package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/api/middleware"
	"github.com/pfalabs/finance-assistant/internal/auth"
	"github.com/pfalabs/finance-assistant/internal/jobs"
	"github.com/pfalabs/finance-assistant/internal/pipeline"
)

// maxUploadBytes caps receipt PDFs at 10 MiB.
const maxUploadBytes = 10 << 20

// UploadHandler handles receipt upload and re-parse endpoints.
type UploadHandler struct {
	deps      *pipeline.Deps
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps *pipeline.Deps, publisher jobs.Publisher, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{deps: deps, publisher: publisher, log: log}
}

// UploadPDF handles POST /api/upload/pdf
//
// The receipt is processed synchronously: archive, record, extract and
// persist. Only a failure to read the upload or to get text out of the PDF
// is a hard error; zero extracted items is a normal 200 with an explanatory
// message.
func (h *UploadHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		middleware.WriteError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	state := &pipeline.State{
		UserID:   userID,
		Filename: header.Filename,
		PDFBytes: data,
	}

	if err := pipeline.NewReceiptIngestionPipeline(h.deps).Execute(r.Context(), state); err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Receipt ingestion failed")
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not process receipt PDF")
		return
	}

	message := fmt.Sprintf("%d transactions added from receipt", state.PersistedCount)
	if state.PersistedCount == 0 {
		message = "No line items found in receipt"
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"receipt_id":    state.ReceiptID,
		"gcs_uri":       state.GCSURI,
		"transactions":  state.Persisted,
		"success_count": state.PersistedCount,
		"message":       message,
	})
}

// Reparse handles POST /api/upload/reparse
//
// It enqueues an asynchronous re-parse of an already archived receipt.
func (h *UploadHandler) Reparse(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		ReceiptID string `json:"receipt_id"`
		GCSURI    string `json:"gcs_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReceiptID == "" || req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "receipt_id and gcs_uri are required")
		return
	}

	job := &jobs.ParseReceiptJob{
		ReceiptID: req.ReceiptID,
		UserID:    userID,
		GCSURI:    req.GCSURI,
	}
	if err := h.publisher.PublishParseReceipt(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue parse job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parse job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("receipt_id", req.ReceiptID).Msg("Parse job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"receipt_id": req.ReceiptID,
		"status":     string(job.Status),
	})
}
