// Package domain defines core types and interfaces for import runs
package domain

import "time"

// Status is the lifecycle state of an import run
type Status string

// Run lifecycle states
const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusRolledBack Status = "rolled_back"
)

// BlockingStatuses are the states that hold the uniqueness invariant for a triple
// a row in any of these blocks a new attempt for the same (supplier, content_hash, as_of_date)
var BlockingStatuses = []Status{StatusPending, StatusRunning, StatusSuccess}

// Terminal reports whether s ends the run's lifecycle
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusRolledBack:
		return true
	}
	return false
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSuccess, StatusFailed, StatusSkipped, StatusRolledBack:
		return true
	}
	return false
}

// Mode selects how the delegate applies its writes
type Mode string

// Processing modes
const (
	ModeAtomic  Mode = "atomic"
	ModeChunked Mode = "chunked"
)

// Metrics are the whitelisted per-run counters
// only these fields ever reach storage, whatever the delegate reports
type Metrics struct {
	TotalRowsProcessed int64 `json:"total_rows_processed"`
	RowsSkipped        int64 `json:"rows_skipped"`
	NewSKUCount        int64 `json:"new_sku_count"`
	UpdatedSKUCount    int64 `json:"updated_sku_count"`
	NewWineryCount     int64 `json:"new_winery_count"`
	QuarantineCount    int64 `json:"quarantine_count"`
}

// ImportRun is one attempt to import a file
// a file may be attempted multiple times, producing multiple rows that share
// metadata but differ in outcome
type ImportRun struct {
	RunID          string // uuid
	Supplier       string
	AsOfDate       time.Time // date precision
	SourceFilename string
	ContentHash    string // lowercase hex
	FileSizeBytes  int64
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	TriggeredBy    string
	ProcessingMode Mode
	Metrics        Metrics
	ErrorSummary   string
	ErrorDetails   map[string]any // optional structured failure context
	ArtifactPaths  []string
	ImportConfig   map[string]any
	EnvelopeID     *string // weak reference, nullable
}

// Blocking reports whether the run currently holds the uniqueness invariant
func (r ImportRun) Blocking() bool {
	switch r.Status {
	case StatusPending, StatusRunning, StatusSuccess:
		return true
	}
	return false
}

// CreateInput carries everything create_run persists for a fresh pending row
type CreateInput struct {
	Supplier       string
	AsOfDate       time.Time
	ContentHash    string
	SourceFilename string
	FileSizeBytes  int64
	TriggeredBy    string
	ProcessingMode Mode
	ImportConfig   map[string]any
}

// SkipInput carries the fields for a terminal skipped row written on the duplicate path
type SkipInput struct {
	Supplier       string
	AsOfDate       time.Time
	ContentHash    string
	SourceFilename string
	FileSizeBytes  int64
	TriggeredBy    string
	ProcessingMode Mode
	EnvelopeID     *string // copied forward from the most recent success for the hash
}

// TerminalInput carries a success/failed completion write
type TerminalInput struct {
	RunID        string
	Status       Status // success or failed
	Metrics      Metrics
	ErrorSummary string
	ErrorDetails map[string]any
}

// AfterKey supports stable keyset pagination over (created_at, run_id)
type AfterKey struct {
	CreatedAt time.Time
	RunID     string // uuid
}

// ListInput defines filters for listing recent runs
type ListInput struct {
	Supplier string
	Status   Status
	Since    time.Time // inclusive, zero = unbounded
	Until    time.Time // exclusive, zero = unbounded
	After    AfterKey  // zero value = from start
	Limit    int       // hard-capped in service
}

// StalenessSummary is the aggregate freshness view for one supplier
type StalenessSummary struct {
	Supplier           string     `json:"supplier"`
	LastSuccessAt      *time.Time `json:"last_success_at"`
	HoursSinceSuccess  *float64   `json:"hours_since_success"`
	RecentFailureCount int64      `json:"recent_failure_count"`
	CurrentlyRunning   bool       `json:"currently_running"`
}
