package model

import "time"

// RunStatus is the state of a recorded discovery run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a row of the run log.
type Run struct {
	ID        string        `json:"id"`
	Request   SearchRequest `json:"request"`
	Status    RunStatus     `json:"status"`
	Result    *RunResult    `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RunResult is the stored outcome of a completed run.
type RunResult struct {
	Results        []Company     `json:"results"`
	TotalCompanies int           `json:"total_companies"`
	Statuses       []CrawlStatus `json:"statuses"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status RunStatus
	Limit  int
	Offset int
}
