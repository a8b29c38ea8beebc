package module

import (
	"time"

	"cellarbook/internal/platform/config"
)

// Options configures the reclaimer module
type Options struct {
	Interval       time.Duration
	RunningTimeout time.Duration
	PendingTimeout time.Duration
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("CORE_RECLAIM_")
	return Options{
		Interval:       rf.MayDuration("INTERVAL", 15*time.Minute),
		RunningTimeout: rf.MayDuration("RUNNING_TIMEOUT", 2*time.Hour),
		PendingTimeout: rf.MayDuration("PENDING_TIMEOUT", 10*time.Minute),
	}
}
