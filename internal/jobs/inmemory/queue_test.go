package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/pipeline"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.StatementJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
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

func TestQueue_CompletedJobCarriesResult(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	result := &pipeline.CategorizationResult{
		Categories: []pipeline.CategorizedTransaction{
			{Description: "Tesco", Amount: -10, Category: "Groceries"},
		},
		Insights: []string{"a", "b", "c"},
	}

	handler := func(ctx context.Context, job *jobs.StatementJob) (*pipeline.CategorizationResult, error) {
		return result, nil
	}
	if err := queue.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.StatementJob{GCSURI: "gs://bucket/statement.pdf"}
	if err := queue.PublishStatementJob(context.Background(), job); err != nil {
		t.Fatalf("PublishStatementJob() error = %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.Result == nil || len(done.Result.Categories) != 1 {
		t.Errorf("completed job result = %+v, want the handler's result", done.Result)
	}
	if done.Error != "" {
		t.Errorf("completed job carries error %q", done.Error)
	}
}

func TestQueue_FailedJobCarriesError(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	handler := func(ctx context.Context, job *jobs.StatementJob) (*pipeline.CategorizationResult, error) {
		return nil, errors.New("model provider: boom")
	}
	if err := queue.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.StatementJob{GCSURI: "gs://bucket/statement.pdf"}
	if err := queue.PublishStatementJob(context.Background(), job); err != nil {
		t.Fatalf("PublishStatementJob() error = %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error == "" {
		t.Error("failed job has empty error message")
	}
	if failed.Result != nil {
		t.Errorf("failed job carries result %+v", failed.Result)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	err := queue.PublishStatementJob(context.Background(), &jobs.StatementJob{GCSURI: "gs://b/o.pdf"})
	if err == nil {
		t.Error("expected error publishing to a closed queue")
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	seed := []*jobs.StatementJob{
		{JobID: "a", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(-3 * time.Minute)},
		{JobID: "b", Status: jobs.JobStatusFailed, CreatedAt: base.Add(-2 * time.Minute)},
		{JobID: "c", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(-1 * time.Minute)},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", j.JobID, err)
		}
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Errorf("ListJobs() order = %v, want newest first [c b a]", jobIDs(all))
	}

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs(completed) error = %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("got %d completed jobs, want 2", len(completed))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListJobs(limit/offset) error = %v", err)
	}
	if len(limited) != 1 || limited[0].JobID != "b" {
		t.Errorf("ListJobs(limit 1 offset 1) = %v, want [b]", jobIDs(limited))
	}
}

func jobIDs(list []*jobs.StatementJob) []string {
	ids := make([]string, 0, len(list))
	for _, j := range list {
		ids = append(ids, j.JobID)
	}
	return ids
}
