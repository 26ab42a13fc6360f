package model

import "time"

// JobStatus is the lifecycle state of a crawl job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// CrawlJob tracks one analysis request through its lifecycle. The engine
// is invoked at most once per job; retries belong to the caller.
type CrawlJob struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Status        JobStatus  `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	TotalLinks    int        `json:"total_links"`
	InternalLinks int        `json:"internal_links"`
	ExternalLinks int        `json:"external_links"`
}

// MarkRunning transitions the job to running and stamps the start time.
func (j *CrawlJob) MarkRunning(now time.Time) {
	j.Status = JobRunning
	j.StartedAt = &now
}

// MarkCompleted transitions the job to completed.
func (j *CrawlJob) MarkCompleted(now time.Time) {
	j.Status = JobCompleted
	j.CompletedAt = &now
}

// MarkFailed transitions the job to failed with a terminal error message.
func (j *CrawlJob) MarkFailed(now time.Time, msg string) {
	j.Status = JobFailed
	j.CompletedAt = &now
	j.ErrorMessage = msg
}

// JobStats counts jobs by lifecycle state.
type JobStats struct {
	Total     int `json:"total_crawls"`
	Completed int `json:"completed_crawls"`
	Running   int `json:"running_crawls"`
	Failed    int `json:"failed_crawls"`
}
