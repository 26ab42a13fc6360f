package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagegraph/pagegraph/internal/model"
)

// testChecker returns a checker with no throttle and a plain transport
// (no SSRF blocking) so tests can reach httptest servers on localhost.
func testChecker() *StatusChecker {
	return &StatusChecker{
		session:   newSession(&http.Transport{}),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		maxChecks: MaxStatusChecks,
	}
}

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/ok")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/not-found", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/server-error", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func linkTo(url string) model.LinkRecord {
	return model.LinkRecord{URL: url, Type: model.LinkInternal}
}

func TestCheckAll_StatusCodes(t *testing.T) {
	ts := newStatusServer(t)

	links := []model.LinkRecord{
		linkTo(ts.URL + "/ok"),
		linkTo(ts.URL + "/redirect"),
		linkTo(ts.URL + "/not-found"),
		linkTo(ts.URL + "/server-error"),
	}

	checked := testChecker().CheckAll(context.Background(), links)
	if checked != 4 {
		t.Fatalf("checked = %d, want 4", checked)
	}

	expected := []struct {
		status int
		broken bool
	}{
		{200, false},
		{200, false}, // redirect followed to /ok
		{404, true},
		{500, true},
	}
	for i, want := range expected {
		if links[i].StatusCode == nil || *links[i].StatusCode != want.status {
			t.Errorf("link %d status = %v, want %d", i, links[i].StatusCode, want.status)
		}
		if links[i].IsBroken != want.broken {
			t.Errorf("link %d broken = %v, want %v", i, links[i].IsBroken, want.broken)
		}
	}
}

func TestCheckAll_ProbeFailureMarksBroken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	ts.Close() // unreachable from here on

	links := []model.LinkRecord{linkTo(ts.URL + "/gone")}
	testChecker().CheckAll(context.Background(), links)

	if links[0].StatusCode != nil {
		t.Errorf("status = %v, want nil after probe failure", *links[0].StatusCode)
	}
	if !links[0].IsBroken {
		t.Error("broken = false, want true after probe failure")
	}
}

func TestCheckAll_CapLeavesRemainderUnchecked(t *testing.T) {
	var probed int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&probed, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	links := make([]model.LinkRecord, 60)
	for i := range links {
		links[i] = linkTo(fmt.Sprintf("%s/page/%d", ts.URL, i))
	}

	checked := testChecker().CheckAll(context.Background(), links)

	if checked != MaxStatusChecks {
		t.Errorf("checked = %d, want %d", checked, MaxStatusChecks)
	}
	if got := atomic.LoadInt64(&probed); got != MaxStatusChecks {
		t.Errorf("server saw %d probes, want %d", got, MaxStatusChecks)
	}

	for i := range MaxStatusChecks {
		if links[i].StatusCode == nil {
			t.Fatalf("link %d has nil status, want probed", i)
		}
	}
	// Links past the cap stay unknown, not healthy and not broken.
	for i := MaxStatusChecks; i < len(links); i++ {
		if links[i].StatusCode != nil {
			t.Errorf("link %d status = %v, want nil beyond cap", i, *links[i].StatusCode)
		}
		if links[i].IsBroken {
			t.Errorf("link %d broken = true, want false beyond cap", i)
		}
	}
}

func TestCheckAll_Throttles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	session := newSession(&http.Transport{})
	defer session.Close()

	links := []model.LinkRecord{
		linkTo(ts.URL + "/a"),
		linkTo(ts.URL + "/b"),
		linkTo(ts.URL + "/c"),
	}

	start := time.Now()
	NewStatusChecker(session).CheckAll(context.Background(), links)
	elapsed := time.Since(start)

	// Three probes at one per 100ms means at least two waits.
	if elapsed < 2*probeInterval {
		t.Errorf("elapsed = %v, want at least %v of throttling", elapsed, 2*probeInterval)
	}
}

func TestCheckAll_Empty(t *testing.T) {
	if checked := testChecker().CheckAll(context.Background(), nil); checked != 0 {
		t.Errorf("checked = %d, want 0", checked)
	}
}
