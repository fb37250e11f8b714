package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spendlens/spendlens/internal/api/middleware"
	"github.com/spendlens/spendlens/internal/audit"
	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/statements"
	"github.com/spendlens/spendlens/internal/taxonomy"
)

// maxTransactions bounds a text-mode request.
const maxTransactions = 1000

// Categorizer is the pipeline surface the handlers depend on.
type Categorizer interface {
	CategorizeTransactions(ctx context.Context, txs []pipeline.Transaction) (*pipeline.CategorizationResult, error)
	CategorizeStatement(ctx context.Context, statement []byte) (*pipeline.CategorizationResult, error)
}

// CategorizeHandler handles the synchronous categorization endpoints.
type CategorizeHandler struct {
	svc     Categorizer
	fetcher statements.Fetcher
	log     zerolog.Logger
}

// NewCategorizeHandler creates a new categorization handler. fetcher may be
// nil when URI-based statement input is not configured.
func NewCategorizeHandler(svc Categorizer, fetcher statements.Fetcher, log zerolog.Logger) *CategorizeHandler {
	return &CategorizeHandler{
		svc:     svc,
		fetcher: fetcher,
		log:     log,
	}
}

type transactionInput struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date,omitempty"`
}

type categorizeRequest struct {
	Transactions []transactionInput `json:"transactions"`
}

// Categorize handles POST /api/categorize (text mode).
func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txs, err := validateTransactions(req.Transactions)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.CategorizeTransactions(r.Context(), txs)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// validateTransactions checks the caller input before the pipeline runs:
// 1 to 1000 elements, each with a non-empty description and a numeric amount.
func validateTransactions(inputs []transactionInput) ([]pipeline.Transaction, error) {
	if len(inputs) == 0 {
		return nil, &pipeline.ValidationError{Field: "transactions", Message: "at least one transaction is required"}
	}
	if len(inputs) > maxTransactions {
		return nil, &pipeline.ValidationError{
			Field:   "transactions",
			Message: fmt.Sprintf("too many transactions: %d (limit %d)", len(inputs), maxTransactions),
		}
	}

	txs := make([]pipeline.Transaction, 0, len(inputs))
	for i, in := range inputs {
		if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
			return nil, &pipeline.ValidationError{
				Field:   fmt.Sprintf("transactions[%d].description", i),
				Message: "must be a non-empty string",
			}
		}
		if in.Amount == nil {
			return nil, &pipeline.ValidationError{
				Field:   fmt.Sprintf("transactions[%d].amount", i),
				Message: "must be a number",
			}
		}
		txs = append(txs, pipeline.Transaction{
			Description: *in.Description,
			Amount:      *in.Amount,
			Date:        in.Date,
		})
	}
	return txs, nil
}

type statementRequest struct {
	StatementBase64 string `json:"statement_base64,omitempty"`
	GCSURI          string `json:"gcs_uri,omitempty"`
}

// CategorizeStatement handles POST /api/categorize/statement (document mode).
// The statement arrives either inline as base64 or as a GCS URI to fetch.
func (h *CategorizeHandler) CategorizeStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var document []byte
	switch {
	case req.StatementBase64 != "" && req.GCSURI != "":
		middleware.WriteError(w, http.StatusBadRequest, "statement_base64 and gcs_uri are mutually exclusive")
		return

	case req.StatementBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(req.StatementBase64)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "statement_base64: not valid base64 data")
			return
		}
		if len(decoded) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, "statement_base64: document is empty")
			return
		}
		document = decoded

	case req.GCSURI != "":
		if h.fetcher == nil {
			middleware.WriteError(w, http.StatusBadRequest, "gcs_uri input is not configured")
			return
		}
		fetched, err := h.fetcher.Fetch(r.Context(), req.GCSURI)
		if err != nil {
			h.log.Error().Err(err).Str("gcs_uri", req.GCSURI).Msg("Failed to fetch statement")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch statement document")
			return
		}
		document = fetched

	default:
		middleware.WriteError(w, http.StatusBadRequest, "statement_base64 or gcs_uri is required")
		return
	}

	result, err := h.svc.CategorizeStatement(r.Context(), document)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// writePipelineError maps pipeline failures onto HTTP statuses. Messages are
// derived from the underlying cause; stack traces never reach the caller.
func (h *CategorizeHandler) writePipelineError(w http.ResponseWriter, err error) {
	var validationErr *pipeline.ValidationError
	if errors.As(err, &validationErr) {
		middleware.WriteError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var providerErr *pipeline.ProviderError
	if errors.As(err, &providerErr) {
		h.log.Error().Err(err).Msg("Model provider failure")
		middleware.WriteError(w, http.StatusBadGateway, providerErr.Error())
		return
	}

	h.log.Error().Err(err).Msg("Categorization failed")
	middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// JobsHandler handles asynchronous statement job endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// Enqueue handles POST /api/statements/parse.
func (h *JobsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GCSURI string `json:"gcs_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
		return
	}

	job := &jobs.StatementJob{GCSURI: req.GCSURI}
	if err := h.publisher.PublishStatementJob(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue statement job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue statement job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", req.GCSURI).Msg("Statement job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// TaxonomyHandler serves the fixed category taxonomy.
type TaxonomyHandler struct{}

// ListCategories handles GET /api/taxonomy.
func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": taxonomy.Categories,
		"count":      len(taxonomy.Categories),
	})
}

// RunsHandler serves recent categorization runs from the audit trail.
type RunsHandler struct {
	lister audit.Lister
	log    zerolog.Logger
}

// NewRunsHandler creates a new runs handler. lister is nil when no audit
// dataset is configured.
func NewRunsHandler(lister audit.Lister, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{lister: lister, log: log}
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Audit trail is not configured")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	runs, err := h.lister.ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
