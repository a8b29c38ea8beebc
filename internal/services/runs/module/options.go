package module

import (
	"time"

	"cellarbook/internal/platform/config"
)

// Options configures the runs module
type Options struct {
	HardLimit     int
	FailureWindow time.Duration
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("CORE_RUNS_")
	return Options{
		HardLimit:     rf.MayInt("HARD_LIMIT", 200),
		FailureWindow: rf.MayDuration("FAILURE_WINDOW", 7*24*time.Hour),
	}
}
