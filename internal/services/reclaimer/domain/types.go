// Package domain defines types and interfaces for stale run reclamation
package domain

import "time"

// Policy holds the two staleness thresholds
// pending_timeout is typically much shorter since pending -> running should be
// near-instantaneous
type Policy struct {
	RunningTimeout time.Duration
	PendingTimeout time.Duration
}

// Result counts one sweep's forced rollbacks
type Result struct {
	RolledBackRunning int `json:"rolled_back_running"`
	RolledBackPending int `json:"rolled_back_pending"`
}
