package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pfalabs/finance-assistant/internal/jobs"
)

func waitForStatus(t *testing.T, store jobs.JobStore, jobID string, want jobs.JobStatus) *jobs.ParseReceiptJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	processed := make(chan string, 1)
	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.ParseReceiptJob{ReceiptID: "r-1", UserID: "u-1", GCSURI: "gs://b/r.pdf"}
	if err := q.PublishParseReceipt(context.Background(), job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Expected job ID to be assigned")
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("processed %s, want %s", id, job.JobID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job was never processed")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
}

func TestQueueMarksExhaustedJobFailed(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		return errors.New("parse failed")
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Retries already exhausted, so the first failure is final.
	job := &jobs.ParseReceiptJob{ReceiptID: "r-1", RetryCount: 3, MaxRetries: 3}
	if err := q.PublishParseReceipt(context.Background(), job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error != "parse failed" {
		t.Errorf("error = %q", failed.Error)
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := q.PublishParseReceipt(context.Background(), &jobs.ParseReceiptJob{})
	if err == nil {
		t.Error("Expected publish on closed queue to fail")
	}
}
