package domain

import "context"

// TrackerPort links fingerprints to file metadata, best-effort
// LinkOrCreate never returns an error: degraded or failing storage yields a
// nil envelope id and the import proceeds without linkage
type TrackerPort interface {
	LinkOrCreate(ctx context.Context, in LinkInput) *string
}
