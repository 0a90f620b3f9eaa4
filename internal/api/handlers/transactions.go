package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/api/middleware"
	"github.com/pfalabs/finance-assistant/internal/auth"
	"github.com/pfalabs/finance-assistant/internal/category"
	"github.com/pfalabs/finance-assistant/internal/classify"
	"github.com/pfalabs/finance-assistant/internal/domain"
	"github.com/pfalabs/finance-assistant/internal/extract"
	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

const (
	maxDescriptionLen = 500
	defaultPageSize   = 20
	maxPageSize       = 100
)

// Categorizer is the single-description categorization surface, implemented
// by extract.Extractor.
type Categorizer interface {
	CategorizeDescription(ctx context.Context, description string, hint domain.Type) (extract.Categorization, error)
}

// TransactionsHandler handles transaction CRUD and categorization endpoints.
type TransactionsHandler struct {
	repo        infra.TransactionRepository
	categorizer Categorizer
	log         zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo infra.TransactionRepository, categorizer Categorizer, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, categorizer: categorizer, log: log}
}

type createTransactionRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // YYYY-MM-DD, defaults to today
}

// Create handles POST /api/transactions
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txType := domain.Type(req.Type)
	if !txType.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || len(req.Description) > maxDescriptionLen {
		middleware.WriteError(w, http.StatusBadRequest, "description is required and must be at most 500 characters")
		return
	}

	// Missing category falls back to the keyword classifier; a provided one
	// must belong to the vocabulary of the declared type.
	if req.Category == "" {
		req.Category = classify.Classify(req.Description, txType).Category
	} else if !categoryValidForType(req.Category, txType) {
		middleware.WriteError(w, http.StatusBadRequest, "category is not valid for the given type")
		return
	}

	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
			return
		}
	}

	tx := &domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        userID,
		Type:          txType,
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		Source:        domain.SourceManual,
		CreatedTS:     time.Now(),
	}

	if err := h.repo.InsertTransaction(r.Context(), infra.TransactionRowFromDomain(tx, "")); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		page = p
	}
	limit := defaultPageSize
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}

	filter := infra.TransactionQuery{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if s := query.Get("start_date"); s != "" {
		filter.StartDate, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		filter.EndDate, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	rows, err := h.repo.QueryUserTransactions(r.Context(), userID, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.ToDomain())
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"page":         page,
		"limit":        limit,
		"count":        len(transactions),
	})
}

// Categories handles GET /api/transactions/categories
//
// Alongside the full vocabularies it reports which categories the user has
// actually used, so pickers can surface those first.
func (h *TransactionsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	used := []string{}
	if userID, err := auth.UserIDFromContext(r.Context()); err == nil {
		if cats, err := h.repo.ListUserCategories(r.Context(), userID); err != nil {
			h.log.Warn().Err(err).Msg("Failed to list used categories")
		} else if cats != nil {
			used = cats
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"income":  category.IncomeCategories,
		"expense": category.ExpenseCategories,
		"used":    used,
	})
}

type autocategorizeRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"` // optional hint
}

// Autocategorize handles POST /api/transactions/autocategorize
func (h *TransactionsHandler) Autocategorize(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.UserIDFromContext(r.Context()); err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req autocategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "description is required")
		return
	}

	result, err := h.categorizer.CategorizeDescription(r.Context(), req.Description, domain.Type(req.Type))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

func categoryValidForType(cat string, txType domain.Type) bool {
	if txType == domain.TypeIncome {
		return category.IsIncome(cat)
	}
	return category.IsExpense(cat)
}
