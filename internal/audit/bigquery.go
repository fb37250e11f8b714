package audit

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const runsTable = "categorization_runs"

// maxErrorLen caps the error message stored per run.
const maxErrorLen = 2000

// runRow is the BigQuery schema for one categorization run.
type runRow struct {
	RunID            string    `bigquery:"run_id"`
	Mode             string    `bigquery:"mode"`
	Status           string    `bigquery:"status"`
	ErrorMessage     string    `bigquery:"error_message"`
	RawModelOutput   string    `bigquery:"raw_model_output"`
	TransactionCount int       `bigquery:"transaction_count"`
	StartedAt        time.Time `bigquery:"started_ts"`
	FinishedAt       time.Time `bigquery:"finished_ts"`
}

// BigQueryRecorder writes run records to a BigQuery dataset.
type BigQueryRecorder struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryRecorder creates a recorder backed by the given project and
// dataset.
func NewBigQueryRecorder(ctx context.Context, projectID, dataset string) (*BigQueryRecorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("audit: bigquery client: %w", err)
	}
	return &BigQueryRecorder{client: client, dataset: dataset}, nil
}

// RecordRun inserts one run row.
func (r *BigQueryRecorder) RecordRun(ctx context.Context, run *Run) error {
	errMsg := run.ErrorMessage
	if len(errMsg) > maxErrorLen {
		errMsg = errMsg[:maxErrorLen]
	}

	row := &runRow{
		RunID:            run.RunID,
		Mode:             run.Mode,
		Status:           run.Status,
		ErrorMessage:     errMsg,
		RawModelOutput:   run.RawModelOutput,
		TransactionCount: run.TransactionCount,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
	}

	inserter := r.client.Dataset(r.dataset).Table(runsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("audit: insert run row: %w", err)
	}
	return nil
}

// ListRecentRuns returns the most recent runs, newest first.
func (r *BigQueryRecorder) ListRecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT run_id, mode, status, error_message, transaction_count, started_ts, finished_ts
		FROM %s.%s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: query runs: %w", err)
	}

	var runs []*Run
	for {
		var row runRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audit: iterate runs: %w", err)
		}
		runs = append(runs, &Run{
			RunID:            row.RunID,
			Mode:             row.Mode,
			Status:           row.Status,
			ErrorMessage:     row.ErrorMessage,
			TransactionCount: row.TransactionCount,
			StartedAt:        row.StartedAt,
			FinishedAt:       row.FinishedAt,
		})
	}
	return runs, nil
}

// Close releases the underlying BigQuery client.
func (r *BigQueryRecorder) Close() error {
	return r.client.Close()
}

var _ Recorder = (*BigQueryRecorder)(nil)
var _ Lister = (*BigQueryRecorder)(nil)
