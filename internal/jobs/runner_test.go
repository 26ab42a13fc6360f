package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/logger"
	"github.com/pagegraph/pagegraph/internal/platform/metrics"
	"github.com/pagegraph/pagegraph/internal/store"
)

// fakeAnalyzer implements Analyzer without touching the network.
type fakeAnalyzer struct {
	result *model.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ model.AnalysisRequest) (*model.AnalysisResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestRunner(st store.Store, analyzer Analyzer) (*Runner, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewRunner(st, analyzer, logger.Discard(), m), m
}

func seedJob(t *testing.T, st store.Store, id string) {
	t.Helper()
	job := &model.CrawlJob{
		ID:        id,
		URL:       "https://example.com",
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
}

func successResult() *model.AnalysisResult {
	status := 200
	return &model.AnalysisResult{
		Success: true,
		PageInfo: &model.PageInfo{
			StatusCode: 200,
			Title:      "Front Page",
		},
		Links: []model.LinkRecord{
			{URL: "https://example.com/a", Type: model.LinkInternal, StatusCode: &status},
			{URL: "https://other.com/b", Type: model.LinkExternal},
		},
		TotalLinks:    2,
		InternalLinks: 1,
		ExternalLinks: 1,
	}
}

func TestRunner_Run_Success(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedJob(t, st, "job-1")

	analyzer := &fakeAnalyzer{result: successResult()}
	runner, m := newTestRunner(st, analyzer)

	if err := runner.Run(ctx, "job-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if analyzer.calls != 1 {
		t.Errorf("analyzer called %d times, want 1", analyzer.calls)
	}

	job, err := st.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != model.JobCompleted {
		t.Errorf("status = %s, want completed", job.Status)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("timestamps missing on completed job")
	}
	if job.TotalLinks != 2 || job.InternalLinks != 1 || job.ExternalLinks != 1 {
		t.Errorf("link counts = %d/%d/%d, want 2/1/1",
			job.TotalLinks, job.InternalLinks, job.ExternalLinks)
	}

	info, err := st.GetPageInfo(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetPageInfo: %v", err)
	}
	if info.Title != "Front Page" {
		t.Errorf("persisted title = %q", info.Title)
	}
	links, _ := st.GetLinks(ctx, "job-1")
	if len(links) != 2 {
		t.Errorf("persisted links = %d, want 2", len(links))
	}

	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(string(model.JobCompleted))); got != 1 {
		t.Errorf("completed counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LinksChecked); got != 2 {
		t.Errorf("link checks counter = %v, want 2", got)
	}
}

func TestRunner_Run_EngineError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedJob(t, st, "job-1")

	analyzer := &fakeAnalyzer{err: errors.New("invalid URL")}
	runner, m := newTestRunner(st, analyzer)

	// Engine errors are terminal for the job, not for the runner.
	if err := runner.Run(ctx, "job-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := st.GetJob(ctx, "job-1")
	if job.Status != model.JobFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.ErrorMessage != "invalid URL" {
		t.Errorf("error message = %q", job.ErrorMessage)
	}

	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(string(model.JobFailed))); got != 1 {
		t.Errorf("failed counter = %v, want 1", got)
	}
}

func TestRunner_Run_FetchFailureEnvelope(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedJob(t, st, "job-1")

	analyzer := &fakeAnalyzer{result: &model.AnalysisResult{
		Success: false,
		Error:   "dial tcp: connection refused",
		Links:   []model.LinkRecord{},
	}}
	runner, _ := newTestRunner(st, analyzer)

	if err := runner.Run(ctx, "job-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := st.GetJob(ctx, "job-1")
	if job.Status != model.JobFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.ErrorMessage != "dial tcp: connection refused" {
		t.Errorf("error message = %q", job.ErrorMessage)
	}

	// Nothing gets persisted for a failed analysis.
	if _, err := st.GetPageInfo(ctx, "job-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetPageInfo = %v, want ErrNotFound", err)
	}
}

func TestRunner_Run_UnknownJob(t *testing.T) {
	runner, _ := newTestRunner(store.NewMemory(), &fakeAnalyzer{})

	if err := runner.Run(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Run = %v, want ErrNotFound", err)
	}
}
