package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfalabs/finance-assistant/internal/api/handlers"
	"github.com/pfalabs/finance-assistant/internal/api/middleware"
	"github.com/pfalabs/finance-assistant/internal/auth"
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
		port      = flag.String("port", envOr("PORT", "8080"), "HTTP server port")
		bucket    = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for receipt PDFs (or set GCS_BUCKET env)")
		jwtSecret = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "JWT signing secret (or set JWT_SECRET env)")
		aiModel   = flag.String("ai-model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		aiTimeout = flag.Duration("ai-timeout", envDurationOr("AI_TIMEOUT", extract.DefaultModelTimeout), "Timeout per model call (or set AI_TIMEOUT env)")
		jobsDB    = flag.String("jobs-db", os.Getenv("JOBS_DB"), "SQLite path for the job store; empty keeps jobs in memory")
	)
	flag.Parse()

	log := logger.New()

	if *jwtSecret == "" {
		log.Fatal().Msg("JWT secret is required, set JWT_SECRET or --jwt-secret")
	}

	authSvc, err := auth.NewService(*jwtSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth service")
	}

	ctx := context.Background()

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	store, err := receiptstore.NewGCSStore(*bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt store, set GCS_BUCKET or --bucket")
	}

	// Without an API key the extractor runs fully offline on the line
	// extractor.
	var model extract.TextModel
	if os.Getenv("GEMINI_API_KEY") != "" {
		model = extract.NewGeminiModel(*aiModel, *aiTimeout)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, receipt extraction runs offline")
	}
	extractor := extract.NewExtractor(model, log)

	deps := &pipeline.Deps{
		Receipts:     repo,
		Transactions: repo,
		Store:        store,
		Extractor:    extractor,
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

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
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

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	authHandler := handlers.NewAuthHandler(repo, authSvc, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, extractor, log)
	uploadHandler := handlers.NewUploadHandler(deps, jobQueue, log)
	summaryHandler := handlers.NewSummaryHandler(repo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// User-scoped routes sit behind the auth middleware; auth and health
	// endpoints stay public.
	api := http.NewServeMux()

	api.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodPost:
			transactionsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/transactions/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.Categories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/transactions/autocategorize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.Autocategorize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/upload/pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.UploadPDF(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/upload/reparse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.Reparse(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/summary/by-category", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.ByCategory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/summary/income-by-category", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.IncomeByCategory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/summary/by-date", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.ByDate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/summary/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.Monthly(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", authSvc.Middleware(api))

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authHandler.Register(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authHandler.Login(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
