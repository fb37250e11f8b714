package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spendlens/spendlens/internal/api/handlers"
	"github.com/spendlens/spendlens/internal/api/middleware"
	"github.com/spendlens/spendlens/internal/audit"
	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/jobs/inmemory"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/statements"
)

// maxRequestBytes caps request bodies. Statements arrive base64-encoded, so
// this sits at roughly a 11 MiB raw document.
const maxRequestBytes = 15 << 20

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	var (
		port         = flag.String("port", "8080", "HTTP server port")
		model        = flag.String("model", os.Getenv("SPENDLENS_MODEL"), "Gemini model name (or set SPENDLENS_MODEL env)")
		auditProject = flag.String("audit-project", os.Getenv("AUDIT_PROJECT"), "GCP project for the audit trail (or set AUDIT_PROJECT env)")
		auditDataset = flag.String("audit-dataset", os.Getenv("AUDIT_DATASET"), "BigQuery dataset for the audit trail (or set AUDIT_DATASET env)")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	// Model provider client. The API key comes from the environment.
	modelClient, err := pipeline.NewGeminiClient(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	// Audit trail is optional: without a project/dataset, runs are not recorded.
	var recorder audit.Recorder = audit.Noop{}
	var lister audit.Lister
	if *auditProject != "" && *auditDataset != "" {
		bqRecorder, err := audit.NewBigQueryRecorder(ctx, *auditProject, *auditDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create audit recorder")
		}
		defer bqRecorder.Close()
		recorder = bqRecorder
		lister = bqRecorder
		log.Info().Str("dataset", *auditDataset).Msg("Audit trail enabled")
	} else {
		log.Warn().Msg("No audit dataset configured - categorization runs will not be recorded")
	}

	svc := pipeline.NewService(modelClient, recorder, log)
	fetcher := statements.NewGCSFetcher()

	// Job infrastructure for asynchronous statement parsing.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.StatementJob) (*pipeline.CategorizationResult, error) {
		log.Info().
			Str("job_id", job.JobID).
			Str("gcs_uri", job.GCSURI).
			Msg("Processing statement job")

		document, err := fetcher.Fetch(ctx, job.GCSURI)
		if err != nil {
			return nil, err
		}
		return svc.CategorizeStatement(ctx, document)
	}

	go func() {
		log.Info().Msg("Starting statement job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers.
	categorizeHandler := handlers.NewCategorizeHandler(svc, fetcher, log)
	jobsHandler := handlers.NewJobsHandler(jobQueue, jobStore, log)
	taxonomyHandler := &handlers.TaxonomyHandler{}
	runsHandler := handlers.NewRunsHandler(lister, log)

	// Router.
	mux := http.NewServeMux()

	mux.HandleFunc("/api/categorize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categorizeHandler.Categorize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categorize/statement", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categorizeHandler.CategorizeStatement(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			jobsHandler.Enqueue(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
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

	mux.HandleFunc("/api/taxonomy", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			taxonomyHandler.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			runsHandler.ListRuns(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.MaxBytes(maxRequestBytes)(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second, // must outlast the model invocation budget
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
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

	log.Info().Msg("Server exited")
}
