package domain

import (
	"context"

	runsdomain "cellarbook/internal/services/runs/domain"
)

// RunnerPort drives one import attempt end to end
type RunnerPort interface {
	// RunImport blocks for the duration of fingerprinting plus the delegate's
	// transformation work and returns the terminal run row
	// delegate failures are recorded durably and re-signaled to the caller;
	// coordination races resolve internally and never surface
	RunImport(ctx context.Context, req RunRequest) (*runsdomain.ImportRun, error)
}
