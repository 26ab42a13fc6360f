package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagegraph/pagegraph/internal/jobs"
	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/logger"
	"github.com/pagegraph/pagegraph/internal/platform/metrics"
	"github.com/pagegraph/pagegraph/internal/store"
)

// stubAnalyzer satisfies the runner without network access so transport
// tests stay hermetic.
type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, _ model.AnalysisRequest) (*model.AnalysisResult, error) {
	return &model.AnalysisResult{
		Success:  true,
		PageInfo: &model.PageInfo{StatusCode: 200},
		Links:    []model.LinkRecord{},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()

	st := store.NewMemory()
	log := logger.Discard()
	runner := jobs.NewRunner(st, stubAnalyzer{}, log, metrics.New(prometheus.NewRegistry()))
	transport := NewTransport(NewService(st, runner, log), log)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, st
}

func seedJob(t *testing.T, st *store.Memory, id string) *model.CrawlJob {
	t.Helper()
	job := &model.CrawlJob{
		ID:        id,
		URL:       "https://example.com",
		Status:    model.JobCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestCreateJob(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/jobs", "application/json",
		strings.NewReader(`{"url": "https://example.com"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	job := decode[model.CrawlJob](t, resp)
	if job.ID == "" {
		t.Error("job ID is empty")
	}
	if job.URL != "https://example.com" {
		t.Errorf("job URL = %q", job.URL)
	}
	if job.Status != model.JobPending {
		t.Errorf("job status = %s, want pending", job.Status)
	}
}

func TestCreateJob_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{not json`},
		{name: "missing url field", body: `{}`},
		{name: "empty url", body: `{"url": ""}`},
		{name: "invalid url", body: `{"url": "not a url"}`},
		{name: "unsupported scheme", body: `{"url": "ftp://example.com"}`},
	}

	ts, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/jobs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			body := decode[model.ErrorResponse](t, resp)
			if body.Message == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestListJobs(t *testing.T) {
	ts, st := newTestServer(t)
	seedJob(t, st, "job-1")
	seedJob(t, st, "job-2")

	resp, err := http.Get(ts.URL + "/jobs")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	listing := decode[JobListing](t, resp)
	if len(listing.Jobs) != 2 {
		t.Errorf("listed %d jobs, want 2", len(listing.Jobs))
	}
	if listing.Stats.Total != 2 || listing.Stats.Completed != 2 {
		t.Errorf("stats = %+v, want 2 total 2 completed", listing.Stats)
	}
}

func TestJobDetail(t *testing.T) {
	ts, st := newTestServer(t)
	seedJob(t, st, "job-1")

	ctx := context.Background()
	if err := st.SavePageInfo(ctx, "job-1", &model.PageInfo{StatusCode: 200, Title: "Front"}); err != nil {
		t.Fatalf("SavePageInfo: %v", err)
	}
	if err := st.SaveLinks(ctx, "job-1", []model.LinkRecord{
		{URL: "https://example.com/a", Type: model.LinkInternal},
	}); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}

	resp, err := http.Get(ts.URL + "/jobs/job-1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	detail := decode[JobDetail](t, resp)
	if detail.Job.ID != "job-1" {
		t.Errorf("job ID = %q", detail.Job.ID)
	}
	if detail.PageInfo == nil || detail.PageInfo.Title != "Front" {
		t.Errorf("page info = %+v", detail.PageInfo)
	}
	if len(detail.Links) != 1 {
		t.Errorf("links = %d, want 1", len(detail.Links))
	}
}

func TestJobDetail_PendingJobHasNoPageInfo(t *testing.T) {
	ts, st := newTestServer(t)
	seedJob(t, st, "job-1")

	resp, err := http.Get(ts.URL + "/jobs/job-1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even without analysis output", resp.StatusCode)
	}

	detail := decode[JobDetail](t, resp)
	if detail.PageInfo != nil {
		t.Errorf("page info = %+v, want nil before the analysis lands", detail.PageInfo)
	}
}

func TestJobDetail_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/jobs/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteJob(t *testing.T) {
	ts, st := newTestServer(t)
	seedJob(t, st, "job-1")

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/job-1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	if _, err := st.GetJob(context.Background(), "job-1"); err == nil {
		t.Error("job still present after delete")
	}
}

func TestDeleteJob_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/nope", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestJobGraph(t *testing.T) {
	ts, st := newTestServer(t)
	seedJob(t, st, "job-1")

	if err := st.SaveLinks(context.Background(), "job-1", []model.LinkRecord{
		{URL: "https://example.com/about", Type: model.LinkInternal, ParentElement: "nav"},
		{URL: "https://partner.com/x", Type: model.LinkExternal},
	}); err != nil {
		t.Fatalf("SaveLinks: %v", err)
	}

	resp, err := http.Get(ts.URL + "/jobs/job-1/graph")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	g := decode[model.Graph](t, resp)
	// Root plus one internal and one external node.
	if len(g.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(g.Nodes))
	}
	if g.Nodes[0].Type != model.NodeRoot {
		t.Errorf("first node type = %s, want root", g.Nodes[0].Type)
	}
	if g.Stats.Internal != 1 || g.Stats.External != 1 {
		t.Errorf("stats = %+v, want 1 internal 1 external", g.Stats)
	}
}

func TestJobGraph_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/jobs/nope/graph")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
