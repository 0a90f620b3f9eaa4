package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/jobs"
)

func newTestJobStore() *mockJobStore {
	return &mockJobStore{jobs: map[string]*jobs.ParseReceiptJob{
		"j1": {JobID: "j1", ReceiptID: "r1", UserID: "u1", Status: jobs.JobStatusCompleted, CreatedAt: time.Now()},
		"j2": {JobID: "j2", ReceiptID: "r2", UserID: "u1", Status: jobs.JobStatusPending, CreatedAt: time.Now()},
	}}
}

func TestGetJob(t *testing.T) {
	h := NewJobsHandler(newTestJobStore(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.GetJob(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil), "j1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp jobs.ParseReceiptJob
	decodeJSON(t, rec, &resp)
	if resp.JobID != "j1" || resp.Status != jobs.JobStatusCompleted {
		t.Errorf("job = %+v", resp)
	}
}

func TestGetJobNotFound(t *testing.T) {
	h := NewJobsHandler(newTestJobStore(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.GetJob(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil), "missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	h := NewJobsHandler(newTestJobStore(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListJobs(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=pending", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Jobs  []*jobs.ParseReceiptJob `json:"jobs"`
		Count int                     `json:"count"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Count != 1 || len(resp.Jobs) != 1 || resp.Jobs[0].JobID != "j2" {
		t.Errorf("resp = %+v", resp)
	}
}
