// Package domain holds DTOs for runs http and service contracts
package domain

import (
	"encoding/base64"
	"strings"
	"time"

	perr "cellarbook/internal/platform/errors"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Dates on the wire are ISO8601 date-only without timezone

// DateLayout is the wire format for as_of_date
const DateLayout = "2006-01-02"

// TriggerImportInput requests a server side import of a file already on disk
type TriggerImportInput struct {
	Supplier       string         `json:"supplier" validate:"required,min=1,max=200" example:"chateau margaux"`
	FilePath       string         `json:"file_path" validate:"required,min=1" example:"/var/imports/margaux-2026-08.csv"`
	AsOfDate       string         `json:"as_of_date" validate:"required,dateonly" example:"2026-08-01"`
	TriggeredBy    string         `json:"triggered_by,omitempty" validate:"omitempty,max=200" example:"ops@cellarbook"`
	ProcessingMode string         `json:"processing_mode,omitempty" validate:"omitempty,oneof=atomic chunked" example:"atomic"`
	ImportConfig   map[string]any `json:"import_config,omitempty"`
}

// ListQuery carries decoded list filters; parsed from query params, not a body
type ListQuery struct {
	Supplier string
	Status   string
	Since    string // dateonly, inclusive
	Until    string // dateonly, exclusive
	Cursor   string
	Limit    int
}

// RunResponse is the wire view of a run row
type RunResponse struct {
	RunID          string                  `json:"run_id" example:"7c9d6f3a-1b2c-4d5e-8f90-0a1b2c3d4e5f"`
	Supplier       string                  `json:"supplier" example:"chateau margaux"`
	AsOfDate       string                  `json:"as_of_date" example:"2026-08-01"`
	SourceFilename string                  `json:"source_filename" example:"margaux-2026-08.csv"`
	ContentHash    string                  `json:"content_hash" example:"9f86d081884c7d65..."`
	FileSizeBytes  int64                   `json:"file_size_bytes" example:"58231"`
	Status         string                  `json:"status" example:"success"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	StartedAt      *time.Time              `json:"started_at,omitempty"`
	FinishedAt     *time.Time              `json:"finished_at,omitempty"`
	TriggeredBy    string                  `json:"triggered_by,omitempty" example:"ops@cellarbook"`
	ProcessingMode string                  `json:"processing_mode" example:"atomic"`
	Metrics        runsdomain.Metrics      `json:"metrics"`
	ErrorSummary   string                  `json:"error_summary,omitempty"`
	ErrorDetails   map[string]any          `json:"error_details,omitempty"`
	ArtifactPaths  []string                `json:"artifact_paths,omitempty"`
	ImportConfig   map[string]any          `json:"import_config,omitempty"`
	EnvelopeID     *string                 `json:"envelope_id,omitempty"`
}

// FromRun projects a run row to the wire shape
func FromRun(r runsdomain.ImportRun) RunResponse {
	return RunResponse{
		RunID:          r.RunID,
		Supplier:       r.Supplier,
		AsOfDate:       r.AsOfDate.Format(DateLayout),
		SourceFilename: r.SourceFilename,
		ContentHash:    r.ContentHash,
		FileSizeBytes:  r.FileSizeBytes,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		TriggeredBy:    r.TriggeredBy,
		ProcessingMode: string(r.ProcessingMode),
		Metrics:        r.Metrics,
		ErrorSummary:   r.ErrorSummary,
		ErrorDetails:   r.ErrorDetails,
		ArtifactPaths:  r.ArtifactPaths,
		ImportConfig:   r.ImportConfig,
		EnvelopeID:     r.EnvelopeID,
	}
}

// FromRuns projects a slice of run rows
func FromRuns(rows []runsdomain.ImportRun) []RunResponse {
	out := make([]RunResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRun(r))
	}
	return out
}

// EncodeCursor renders a keyset position as an opaque cursor token
// zero keys encode to the empty string, meaning no further pages
func EncodeCursor(k runsdomain.AfterKey) string {
	if k.RunID == "" {
		return ""
	}
	raw := k.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + k.RunID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor token back into a keyset position
func DecodeCursor(s string) (runsdomain.AfterKey, error) {
	if s == "" {
		return runsdomain.AfterKey{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return runsdomain.AfterKey{}, perr.InvalidArgf("malformed cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return runsdomain.AfterKey{}, perr.InvalidArgf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return runsdomain.AfterKey{}, perr.InvalidArgf("malformed cursor")
	}
	return runsdomain.AfterKey{CreatedAt: ts, RunID: parts[1]}, nil
}
