package config

func NormalizeBatch(cfg BatchConfig) BatchConfig {
	if cfg.Actions == nil {
		cfg.Actions = []string{}
	}
	return cfg
}

func NormalizeScheduler(cfg SchedulerConfig) SchedulerConfig {
	if cfg.Actions == nil {
		cfg.Actions = []string{}
	}
	if !cfg.Interval.Valid() {
		cfg.Interval = DefaultInterval
	}
	return cfg
}

func NormalizeSettings(s Settings) Settings {
	def := DefaultSettings()
	if s.Logging.Level == "" {
		s.Logging.Level = def.Logging.Level
	}
	if s.Logging.Format == "" {
		s.Logging.Format = def.Logging.Format
	}
	if s.Executor.Shell == "" {
		s.Executor.Shell = def.Executor.Shell
	}
	return s
}
