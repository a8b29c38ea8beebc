// Package domain defines types and interfaces for envelope tracking
package domain

import "time"

// Envelope records that a file content hash has been seen, independent of any run outcome
type Envelope struct {
	EnvelopeID    string // uuid
	ContentHash   string // unique
	FileSizeBytes int64
	CreatedAt     time.Time
	Metadata      map[string]any
}

// LinkInput carries the fields for envelope link-or-create
type LinkInput struct {
	ContentHash    string
	SourceFilename string
	FileSizeBytes  int64
	Supplier       string
	AsOfDate       time.Time
	Metadata       map[string]any
}
