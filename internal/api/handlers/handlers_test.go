package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"

	"github.com/pfalabs/finance-assistant/internal/auth"
	"github.com/pfalabs/finance-assistant/internal/domain"
	"github.com/pfalabs/finance-assistant/internal/extract"
	"github.com/pfalabs/finance-assistant/internal/jobs"
)

type mockUserRepo struct {
	byUsername map[string]*infra.UserRow
	byEmail    map[string]*infra.UserRow
	inserted   []*infra.UserRow
	insertErr  error
	findErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byUsername: make(map[string]*infra.UserRow),
		byEmail:    make(map[string]*infra.UserRow),
	}
}

func (m *mockUserRepo) InsertUser(ctx context.Context, row *infra.UserRow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, row)
	m.byUsername[row.Username] = row
	m.byEmail[row.Email] = row
	return nil
}

func (m *mockUserRepo) FindUserByUsername(ctx context.Context, username string) (*infra.UserRow, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byUsername[username], nil
}

func (m *mockUserRepo) FindUserByEmail(ctx context.Context, email string) (*infra.UserRow, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byEmail[email], nil
}

type mockTxRepo struct {
	rows       []*infra.TransactionRow
	lastFilter infra.TransactionQuery
	insertErr  error
	failFor    map[string]bool // description -> fail that insert only
	queryErr   error

	categorySums []*infra.CategorySum
	dateSums     []*infra.DateSum
	monthlySums  []*infra.MonthlySum
	sumErr       error
}

func (m *mockTxRepo) InsertTransaction(ctx context.Context, row *infra.TransactionRow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.failFor[row.Description] {
		return errors.New("insert failed")
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockTxRepo) InsertTransactions(ctx context.Context, rows []*infra.TransactionRow) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *mockTxRepo) QueryUserTransactions(ctx context.Context, userID string, filter infra.TransactionQuery) ([]*infra.TransactionRow, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.lastFilter = filter
	return m.rows, nil
}

func (m *mockTxRepo) ListUserCategories(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (m *mockTxRepo) SumByCategory(ctx context.Context, userID, txType string, start, end time.Time) ([]*infra.CategorySum, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	return m.categorySums, nil
}

func (m *mockTxRepo) SumExpensesByDate(ctx context.Context, userID string, start, end time.Time) ([]*infra.DateSum, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	return m.dateSums, nil
}

func (m *mockTxRepo) SumMonthly(ctx context.Context, userID string, start, end time.Time) ([]*infra.MonthlySum, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	return m.monthlySums, nil
}

type mockCategorizer struct {
	result extract.Categorization
	err    error
	calls  int
}

func (m *mockCategorizer) CategorizeDescription(ctx context.Context, description string, hint domain.Type) (extract.Categorization, error) {
	m.calls++
	if m.err != nil {
		return extract.Categorization{}, m.err
	}
	return m.result, nil
}

type mockPublisher struct {
	published []*jobs.ParseReceiptJob
	err       error
}

func (m *mockPublisher) PublishParseReceipt(ctx context.Context, job *jobs.ParseReceiptJob) error {
	if m.err != nil {
		return m.err
	}
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	job.Status = jobs.JobStatusPending
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockJobStore struct {
	jobs map[string]*jobs.ParseReceiptJob
}

func (m *mockJobStore) SaveJob(ctx context.Context, job *jobs.ParseReceiptJob) error {
	m.jobs[job.JobID] = job
	return nil
}

func (m *mockJobStore) GetJob(ctx context.Context, jobID string) (*jobs.ParseReceiptJob, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func (m *mockJobStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ParseReceiptJob, error) {
	var out []*jobs.ParseReceiptJob
	for _, job := range m.jobs {
		if filter.ReceiptID != "" && job.ReceiptID != filter.ReceiptID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (m *mockJobStore) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errMsg string) error {
	return nil
}

// authedRequest builds a request whose context already carries an
// authenticated user, the way the auth middleware would leave it.
func authedRequest(t *testing.T, method, target string, body io.Reader, userID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(auth.ContextWithUserID(r.Context(), userID))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}
