package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfalabs/finance-assistant/internal/jobs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetJob(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	started := time.Now().Round(time.Second)
	job := &jobs.ParseReceiptJob{
		JobID:      "job-1",
		ReceiptID:  "receipt-1",
		UserID:     "user-1",
		GCSURI:     "gs://bucket/r.pdf",
		Status:     jobs.JobStatusRunning,
		CreatedAt:  started,
		StartedAt:  &started,
		MaxRetries: 3,
	}

	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.ReceiptID != "receipt-1" || got.Status != jobs.JobStatusRunning {
		t.Errorf("got %+v", got)
	}
	if got.StartedAt == nil {
		t.Error("Expected started_at to round-trip")
	}
	if got.CompletedAt != nil {
		t.Error("Expected completed_at to stay NULL")
	}
}

func TestSaveJobUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job := &jobs.ParseReceiptJob{
		JobID:     "job-1",
		ReceiptID: "receipt-1",
		Status:    jobs.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	job.Status = jobs.JobStatusCompleted
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("second SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != jobs.JobStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestSaveJobRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.SaveJob(context.Background(), &jobs.ParseReceiptJob{}); err == nil {
		t.Error("Expected error for job without ID")
	}
}

func TestGetJobNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetJob(context.Background(), "missing"); err == nil {
		t.Error("Expected error for missing job")
	}
}

func TestListJobsFiltering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now()
	seed := []*jobs.ParseReceiptJob{
		{JobID: "a", ReceiptID: "r-1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", ReceiptID: "r-1", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Second)},
		{JobID: "c", ReceiptID: "r-2", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	byReceipt, err := store.ListJobs(ctx, jobs.JobFilter{ReceiptID: "r-1"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byReceipt) != 2 {
		t.Errorf("receipt filter yielded %d jobs, want 2", len(byReceipt))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("status filter yielded %d jobs, want 2", len(byStatus))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(limited) != 1 || limited[0].JobID != "c" {
		t.Errorf("limited list = %+v, want newest job only", limited)
	}
}

func TestUpdateJobStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job := &jobs.ParseReceiptJob{JobID: "job-1", Status: jobs.JobStatusPending, CreatedAt: time.Now()}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	if err := store.UpdateJobStatus(ctx, "job-1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	got, _ := store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("got %+v", got)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("Expected error for missing job")
	}
}
