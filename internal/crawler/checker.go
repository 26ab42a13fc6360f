package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagegraph/pagegraph/internal/model"
)

const (
	// MaxStatusChecks bounds how many links get a reachability probe.
	MaxStatusChecks = 50
	// probeInterval is the flat pace between probes. It is a throttle,
	// not a per-domain rate limit.
	probeInterval = 100 * time.Millisecond
)

// StatusChecker probes link reachability over the analysis session,
// strictly one link at a time.
type StatusChecker struct {
	session   *Session
	limiter   *rate.Limiter
	maxChecks int
}

// NewStatusChecker returns a checker paced at one probe per 100ms over
// the given session.
func NewStatusChecker(session *Session) *StatusChecker {
	return &StatusChecker{
		session:   session,
		limiter:   rate.NewLimiter(rate.Every(probeInterval), 1),
		maxChecks: MaxStatusChecks,
	}
}

// CheckAll probes at most the first maxChecks links, in extraction
// order, updating each record in place. A probe failure of any kind
// marks that link broken with no status code; a timeout is not
// distinguished from a true 404. Links past the cap keep a nil status
// and are NOT marked broken: an unprobed link is unknown, not healthy.
func (c *StatusChecker) CheckAll(ctx context.Context, links []model.LinkRecord) int {
	limit := min(len(links), c.maxChecks)

	for i := range limit {
		_ = c.limiter.Wait(ctx)

		status, err := c.session.CheckStatus(ctx, links[i].URL)
		if err != nil {
			links[i].StatusCode = nil
			links[i].IsBroken = true
			continue
		}

		code := status
		links[i].StatusCode = &code
		links[i].IsBroken = status >= 400
	}

	return limit
}
