// Package pipeline turns bank transactions, or a bank statement document,
// into a categorized result by way of a generative model. The model is
// untrusted: whatever it returns is validated and repaired so that the
// caller always receives a schema-valid result, or a classified error when
// the provider call itself failed.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spendlens/spendlens/internal/audit"
)

// Service runs the categorization pipeline. Safe for concurrent use: no
// request-level state is shared beyond the immutable taxonomy.
type Service struct {
	model    ModelClient
	recorder audit.Recorder
	log      zerolog.Logger
}

// NewService creates a pipeline service. The model client and audit recorder
// are injected so tests can substitute fakes.
func NewService(model ModelClient, recorder audit.Recorder, log zerolog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Noop{}
	}
	return &Service{
		model:    model,
		recorder: recorder,
		log:      log,
	}
}

// CategorizeTransactions is the text-mode entry point. Input validation
// (bounds, required fields) happens at the HTTP layer before this runs.
//
// A provider failure surfaces as *ProviderError. An unparseable model
// response does not fail: it degrades to a fallback result echoing every
// input transaction under the fallback label.
func (s *Service) CategorizeTransactions(ctx context.Context, txs []Transaction) (*CategorizationResult, error) {
	prompt := buildTextPrompt(txs)
	return s.run(ctx, ModeText, txs, func(ctx context.Context) (string, error) {
		return s.model.GenerateText(ctx, prompt, textMaxOutputTokens)
	})
}

// CategorizeStatement is the document-mode entry point: the statement bytes
// are attached to the prompt and the model does both extraction and
// categorization. Under an unparseable model response the fallback result
// has an empty category list, since no transactions were supplied to echo.
func (s *Service) CategorizeStatement(ctx context.Context, statement []byte) (*CategorizationResult, error) {
	prompt := buildDocumentPrompt()
	return s.run(ctx, ModeDocument, nil, func(ctx context.Context) (string, error) {
		return s.model.GenerateFromDocument(ctx, prompt, statement, pdfMIMEType, documentMaxOutputTokens)
	})
}

// run executes one pipeline pass: invoke, extract, decode, repair. invoke is
// the single blocking step; it gets an explicit deadline since the provider
// imposes none.
func (s *Service) run(ctx context.Context, mode Mode, inputs []Transaction, invoke func(context.Context) (string, error)) (*CategorizationResult, error) {
	runID := uuid.NewString()
	started := time.Now()
	log := s.log.With().Str("run_id", runID).Str("mode", string(mode)).Logger()

	invokeCtx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	raw, err := invoke(invokeCtx)
	if err != nil {
		log.Error().Err(err).Msg("Model invocation failed")
		s.record(ctx, &audit.Run{
			RunID:        runID,
			Mode:         string(mode),
			Status:       audit.StatusFailed,
			ErrorMessage: err.Error(),
			StartedAt:    started,
			FinishedAt:   time.Now(),
		})
		return nil, &ProviderError{Err: err}
	}

	parsed, extractErr := extractJSONObject(raw)
	var res *CategorizationResult
	if extractErr == nil {
		var ok bool
		res, ok = decodeResult(parsed)
		if !ok {
			extractErr = &ExtractionError{Reason: "model output has no categories list"}
		}
	}

	if extractErr != nil {
		log.Warn().Err(extractErr).Msg("Model output unusable, serving fallback result")
		res = fallbackResult(mode, inputs)
		s.record(ctx, &audit.Run{
			RunID:            runID,
			Mode:             string(mode),
			Status:           audit.StatusDegraded,
			ErrorMessage:     extractErr.Error(),
			RawModelOutput:   raw,
			TransactionCount: len(res.Categories),
			StartedAt:        started,
			FinishedAt:       time.Now(),
		})
		return res, nil
	}

	res = repairResult(res)

	log.Info().
		Int("transactions", len(res.Categories)).
		Int("insights", len(res.Insights)).
		Dur("duration", time.Since(started)).
		Msg("Categorization run completed")

	s.record(ctx, &audit.Run{
		RunID:            runID,
		Mode:             string(mode),
		Status:           audit.StatusSucceeded,
		RawModelOutput:   raw,
		TransactionCount: len(res.Categories),
		StartedAt:        started,
		FinishedAt:       time.Now(),
	})
	return res, nil
}

// record is best-effort: an audit failure never fails the request.
func (s *Service) record(ctx context.Context, run *audit.Run) {
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.RunID).Msg("Failed to record audit run")
	}
}
