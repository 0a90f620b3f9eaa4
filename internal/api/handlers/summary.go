package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/analytics"
	"github.com/pfalabs/finance-assistant/internal/api/middleware"
	"github.com/pfalabs/finance-assistant/internal/auth"
	"github.com/pfalabs/finance-assistant/internal/domain"
	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

// SummaryHandler handles the dashboard aggregation endpoints.
type SummaryHandler struct {
	repo infra.TransactionRepository
	log  zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(repo infra.TransactionRepository, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{repo: repo, log: log}
}

// parseRange reads optional start_date/end_date query parameters, defaulting
// to the trailing defaultDays days.
func parseRange(r *http.Request, defaultDays int) (start, end time.Time, err error) {
	query := r.URL.Query()
	end = time.Now()
	start = end.AddDate(0, 0, -defaultDays)

	if s := query.Get("start_date"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, err
		}
	}
	if s := query.Get("end_date"); s != "" {
		end, err = time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

// ByCategory handles GET /api/summary/by-category
func (h *SummaryHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	h.byCategory(w, r, domain.TypeExpense)
}

// IncomeByCategory handles GET /api/summary/income-by-category
func (h *SummaryHandler) IncomeByCategory(w http.ResponseWriter, r *http.Request) {
	h.byCategory(w, r, domain.TypeIncome)
}

func (h *SummaryHandler) byCategory(w http.ResponseWriter, r *http.Request, txType domain.Type) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	start, end, err := parseRange(r, 365)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	rows, err := h.repo.SumByCategory(r.Context(), userID, string(txType), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sum by category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, analytics.CategoryTotals(rows))
}

// ByDate handles GET /api/summary/by-date
func (h *SummaryHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	start, end, err := parseRange(r, 30)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	rows, err := h.repo.SumExpensesByDate(r.Context(), userID, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sum by date")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, analytics.ZeroFillDaily(rows, start, end))
}

// Monthly handles GET /api/summary/monthly
func (h *SummaryHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	start, end, err := parseRange(r, 365)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	rows, err := h.repo.SumMonthly(r.Context(), userID, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sum monthly")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, analytics.MonthlyTotals(rows))
}
