package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfalabs/finance-assistant/internal/extract"
	infraBQ "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
	"github.com/pfalabs/finance-assistant/internal/jobs"
	"github.com/pfalabs/finance-assistant/internal/jobs/inmemory"
	"github.com/pfalabs/finance-assistant/internal/jobs/sqlite"
	"github.com/pfalabs/finance-assistant/internal/logger"
	"github.com/pfalabs/finance-assistant/internal/pipeline"
	"github.com/pfalabs/finance-assistant/internal/receiptstore"
)

func main() {
	var (
		bucket    = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for receipt PDFs (or set GCS_BUCKET env)")
		aiModel   = flag.String("ai-model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		aiTimeout = flag.Duration("ai-timeout", envDurationOr("AI_TIMEOUT", extract.DefaultModelTimeout), "Timeout per model call (or set AI_TIMEOUT env)")
		jobsDB    = flag.String("jobs-db", os.Getenv("JOBS_DB"), "SQLite path for the job store; empty keeps jobs in memory")
	)
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	store, err := receiptstore.NewGCSStore(*bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt store, set GCS_BUCKET or --bucket")
	}

	var model extract.TextModel
	if os.Getenv("GEMINI_API_KEY") != "" {
		model = extract.NewGeminiModel(*aiModel, *aiTimeout)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, receipt extraction runs offline")
	}

	deps := &pipeline.Deps{
		Receipts:     repo,
		Transactions: repo,
		Store:        store,
		Extractor:    extract.NewExtractor(model, log),
		Log:          log,
	}

	var jobStore jobs.JobStore
	if *jobsDB != "" {
		sqliteStore, err := sqlite.Open(*jobsDB)
		if err != nil {
			log.Fatal().Err(err).Str("path", *jobsDB).Msg("Failed to open job store")
		}
		defer sqliteStore.Close()
		jobStore = sqliteStore
	} else {
		jobStore = inmemory.NewStore()
	}
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseReceiptJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("receipt_id", parseJob.ReceiptID).
			Str("gcs_uri", parseJob.GCSURI).
			Msg("Processing parse job")

		state := &pipeline.State{
			UserID:    parseJob.UserID,
			ReceiptID: parseJob.ReceiptID,
			GCSURI:    parseJob.GCSURI,
		}
		if err := pipeline.NewReceiptReparsePipeline(deps).Execute(ctx, state); err != nil {
			log.Error().
				Err(err).
				Str("job_id", parseJob.JobID).
				Str("receipt_id", parseJob.ReceiptID).
				Msg("Reparse failed")
			return err
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("receipt_id", parseJob.ReceiptID).
			Int("persisted", state.PersistedCount).
			Msg("Reparse completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
