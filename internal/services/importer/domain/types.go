// Package domain defines the orchestrator boundary types
package domain

import (
	"context"
	"time"

	"cellarbook/internal/platform/store"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// RawMetrics is whatever shape the delegate reports
// names are not pre-validated; the whitelist projection decides what persists
type RawMetrics map[string]any

// TransformRequest is everything a delegate receives for one attempt
type TransformRequest struct {
	Supplier   string
	FilePath   string
	AsOfDate   time.Time
	RunID      string
	EnvelopeID *string
}

// TransformFunc is the delegate contract
// it performs the catalog upserts on q, reports raw metrics, and returns an
// error on failure rather than a sentinel
type TransformFunc func(ctx context.Context, q store.RowQuerier, req TransformRequest) (RawMetrics, error)

// RunRequest is one import attempt
type RunRequest struct {
	Supplier       string
	FilePath       string
	AsOfDate       time.Time
	TriggeredBy    string
	ProcessingMode runsdomain.Mode // defaults to atomic
	ImportConfig   map[string]any
	Transform      TransformFunc
}
