package config

// DefaultInterval is used when a stored interval is missing or unknown.
const DefaultInterval = IntervalWeekly

// DefaultBatchActions is the selection written on first use.
var DefaultBatchActions = []string{"remove_lock", "dns_reset", "mirror_optimizer", "update_system"}

func DefaultBatch() BatchConfig {
	return BatchConfig{Actions: append([]string(nil), DefaultBatchActions...)}
}

func DefaultScheduler() SchedulerConfig {
	return SchedulerConfig{Actions: []string{}, Enabled: false, Interval: DefaultInterval}
}

// DefaultSettings returns a fully-populated settings document.
func DefaultSettings() Settings {
	return Settings{
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
		Pager: PagerSettings{
			LinesPerPage: 20,
		},
		Executor: ExecutorSettings{
			Shell: "/bin/bash",
		},
	}
}
