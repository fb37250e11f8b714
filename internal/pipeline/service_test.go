package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spendlens/spendlens/internal/audit"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/taxonomy"
)

// MockModelClient is a mock implementation of ModelClient for testing.
type MockModelClient struct {
	GenerateTextFunc         func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
	GenerateFromDocumentFunc func(ctx context.Context, prompt string, document []byte, mimeType string, maxOutputTokens int32) (string, error)
}

func (m *MockModelClient) GenerateText(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt, maxOutputTokens)
	}
	return `{"categories": [], "insights": ["a", "b", "c"]}`, nil
}

func (m *MockModelClient) GenerateFromDocument(ctx context.Context, prompt string, document []byte, mimeType string, maxOutputTokens int32) (string, error) {
	if m.GenerateFromDocumentFunc != nil {
		return m.GenerateFromDocumentFunc(ctx, prompt, document, mimeType, maxOutputTokens)
	}
	return `{"categories": [], "insights": ["a", "b", "c"]}`, nil
}

// MockRecorder captures audit runs for assertions.
type MockRecorder struct {
	Runs []*audit.Run
}

func (m *MockRecorder) RecordRun(ctx context.Context, run *audit.Run) error {
	m.Runs = append(m.Runs, run)
	return nil
}

func newTestService(model pipeline.ModelClient, recorder audit.Recorder) *pipeline.Service {
	log := logger.NewWithWriter(&strings.Builder{})
	return pipeline.NewService(model, recorder, log)
}

var sampleTxs = []pipeline.Transaction{
	{Description: "Tesco Superstore", Amount: -42.17, Date: "2026-08-02"},
	{Description: "Monthly salary", Amount: 2500.00, Date: "2026-08-01"},
}

func TestCategorizeTransactions_ValidResponse(t *testing.T) {
	model := &MockModelClient{
		GenerateTextFunc: func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
			return `Here you go:
{"categories": [
  {"description": "Tesco Superstore", "amount": -42.17, "category": "Groceries"},
  {"description": "Monthly salary", "amount": 2500.00, "category": "Income"}
],
"insights": ["Groceries were 60% of spending.", "Income covered all outgoings.", "No bank fees this month."]}`, nil
		},
	}
	recorder := &MockRecorder{}
	svc := newTestService(model, recorder)

	res, err := svc.CategorizeTransactions(context.Background(), sampleTxs)
	if err != nil {
		t.Fatalf("CategorizeTransactions() error = %v", err)
	}

	if len(res.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(res.Categories))
	}
	if res.Categories[0].Category != "Groceries" || res.Categories[1].Category != "Income" {
		t.Errorf("unexpected categories: %+v", res.Categories)
	}
	if len(res.Insights) != 3 {
		t.Errorf("got %d insights, want 3", len(res.Insights))
	}
	if len(recorder.Runs) != 1 || recorder.Runs[0].Status != audit.StatusSucceeded {
		t.Errorf("audit run = %+v, want one SUCCEEDED run", recorder.Runs)
	}
}

func TestCategorizeTransactions_OutOfTaxonomyLabel(t *testing.T) {
	model := &MockModelClient{
		GenerateTextFunc: func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
			return `{"categories": [{"description": "Tesco Superstore", "amount": -42.17, "category": "Foodstuffs"}],
"insights": ["a", "b", "c"]}`, nil
		},
	}
	svc := newTestService(model, nil)

	res, err := svc.CategorizeTransactions(context.Background(), sampleTxs)
	if err != nil {
		t.Fatalf("CategorizeTransactions() error = %v", err)
	}
	if res.Categories[0].Category != taxonomy.Fallback {
		t.Errorf("category = %q, want %q", res.Categories[0].Category, taxonomy.Fallback)
	}
}

func TestCategorizeTransactions_ProseResponseFallsBack(t *testing.T) {
	model := &MockModelClient{
		GenerateTextFunc: func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
			return "I'm sorry, I can't categorize these transactions.", nil
		},
	}
	recorder := &MockRecorder{}
	svc := newTestService(model, recorder)

	res, err := svc.CategorizeTransactions(context.Background(), sampleTxs)
	if err != nil {
		t.Fatalf("fallback path must not error, got %v", err)
	}

	if len(res.Categories) != len(sampleTxs) {
		t.Fatalf("got %d categories, want all %d inputs echoed", len(res.Categories), len(sampleTxs))
	}
	for i, c := range res.Categories {
		if c.Category != taxonomy.Fallback {
			t.Errorf("category %d = %q, want %q", i, c.Category, taxonomy.Fallback)
		}
		if c.Description != sampleTxs[i].Description || c.Amount != sampleTxs[i].Amount {
			t.Errorf("transaction %d was not echoed: %+v", i, c)
		}
	}
	if len(res.Insights) < 3 {
		t.Errorf("got %d insights, want at least 3", len(res.Insights))
	}
	if len(recorder.Runs) != 1 || recorder.Runs[0].Status != audit.StatusDegraded {
		t.Errorf("audit run = %+v, want one DEGRADED run", recorder.Runs)
	}
}

func TestCategorizeStatement_ProseResponseFallsBack(t *testing.T) {
	model := &MockModelClient{
		GenerateFromDocumentFunc: func(ctx context.Context, prompt string, document []byte, mimeType string, maxOutputTokens int32) (string, error) {
			return "The attached file does not look like a bank statement.", nil
		},
	}
	svc := newTestService(model, nil)

	res, err := svc.CategorizeStatement(context.Background(), []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("fallback path must not error, got %v", err)
	}
	if len(res.Categories) != 0 {
		t.Errorf("got %d categories, want 0 for document-mode fallback", len(res.Categories))
	}
	if len(res.Insights) != 3 {
		t.Errorf("got %d insights, want 3", len(res.Insights))
	}
}

func TestCategorizeTransactions_ProviderFailure(t *testing.T) {
	model := &MockModelClient{
		GenerateTextFunc: func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
			return "", errors.New("connection reset by peer")
		},
	}
	recorder := &MockRecorder{}
	svc := newTestService(model, recorder)

	res, err := svc.CategorizeTransactions(context.Background(), sampleTxs)
	if err == nil {
		t.Fatal("expected error on provider failure, got fallback result")
	}
	if res != nil {
		t.Errorf("expected nil result on provider failure, got %+v", res)
	}

	var provErr *pipeline.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error is %T, want *ProviderError", err)
	}
	if !strings.Contains(err.Error(), "connection reset by peer") {
		t.Errorf("error %q does not carry the underlying cause", err.Error())
	}
	if len(recorder.Runs) != 1 || recorder.Runs[0].Status != audit.StatusFailed {
		t.Errorf("audit run = %+v, want one FAILED run", recorder.Runs)
	}
}

func TestCategorizeTransactions_ShortInsightsReplaced(t *testing.T) {
	model := &MockModelClient{
		GenerateTextFunc: func(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
			return `{"categories": [{"description": "Tesco Superstore", "amount": -42.17, "category": "Groceries"}],
"insights": ["Your only insight."]}`, nil
		},
	}
	svc := newTestService(model, nil)

	res, err := svc.CategorizeTransactions(context.Background(), sampleTxs)
	if err != nil {
		t.Fatalf("CategorizeTransactions() error = %v", err)
	}
	if len(res.Insights) != 3 {
		t.Fatalf("got %d insights, want the 3-element generic set", len(res.Insights))
	}
	for _, s := range res.Insights {
		if s == "Your only insight." {
			t.Error("model insight survived the wholesale replacement")
		}
	}
}
