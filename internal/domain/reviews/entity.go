package reviews

import (
	"time"
)

// ID tipe untuk Review
type ReviewID string

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Status enum for the whole review
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// ResultStatus enum for one perspective
type ResultStatus string

const (
	ResultOK     ResultStatus = "ok"
	ResultFailed ResultStatus = "failed"
)

// Submission is the code handed in by the caller. Immutable once accepted.
type Submission struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

// Finding is one issue reported by a single perspective
type Finding struct {
	Perspective string   `json:"perspective,omitempty"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Line        int      `json:"line,omitempty"`
	Category    string   `json:"category,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// PerspectiveResult is the terminal outcome of one perspective invocation.
// Failures are carried here as data; an invocation never surfaces an error
// to the coordinator.
type PerspectiveResult struct {
	Perspective string       `json:"perspective"`
	Status      ResultStatus `json:"status"`
	Findings    []Finding    `json:"findings"`
	Summary     string       `json:"summary,omitempty"`
	Error       string       `json:"error,omitempty"`
	DurationMS  int64        `json:"duration_ms"`
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Add bumps the counter for sev. Info findings are listed but not counted
// in Total.
func (c *SeverityCounts) Add(sev Severity) {
	switch sev {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityInfo:
		c.Info++
		return
	default:
		return
	}
	c.Total++
}

// Aggregate Root: Review
// Once the coordinator returns, a Review holds exactly one PerspectiveResult
// per configured perspective, even when some of them failed.
type Review struct {
	ID          ReviewID                     `json:"id"`
	Submission  Submission                   `json:"submission"`
	Status      Status                       `json:"status"`
	Results     map[string]PerspectiveResult `json:"results"`
	Counts      SeverityCounts               `json:"counts"`
	ArtifactURL string                       `json:"artifact_url,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	CompletedAt *time.Time                   `json:"completed_at,omitempty"`
	DurationMS  int64                        `json:"duration_ms"`
}

// CountFindings rolls up severity counts across all perspective results.
func CountFindings(results map[string]PerspectiveResult) SeverityCounts {
	var c SeverityCounts
	for _, pr := range results {
		for _, f := range pr.Findings {
			c.Add(f.Severity)
		}
	}
	return c
}

// Stats rekap hasil review
type Stats struct {
	TotalReviews  int     `json:"total_reviews"`
	TotalFindings int     `json:"total_findings"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}
