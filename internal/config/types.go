package config

// BatchConfig is the persisted selection replayed by an unattended run.
type BatchConfig struct {
	Actions []string `json:"actions"`
}

// SchedulerConfig is the persisted timer selection. Interval always holds a
// member of Intervals once loaded.
type SchedulerConfig struct {
	Actions  []string `json:"actions"`
	Enabled  bool     `json:"enabled"`
	Interval Interval `json:"interval"`
}

// Interval is how often the periodic timer fires.
type Interval string

const (
	IntervalOnBoot  Interval = "on-boot"
	IntervalHourly  Interval = "hourly"
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Intervals is the display and cycling order.
var Intervals = []Interval{IntervalOnBoot, IntervalHourly, IntervalDaily, IntervalWeekly, IntervalMonthly}

// ParseInterval reports whether raw names a known interval.
func ParseInterval(raw string) (Interval, bool) {
	for _, iv := range Intervals {
		if string(iv) == raw {
			return iv, true
		}
	}
	return "", false
}

// Next returns the interval after iv, wrapping around. Unknown values start
// over from the default.
func (iv Interval) Next() Interval {
	for i, candidate := range Intervals {
		if candidate == iv {
			return Intervals[(i+1)%len(Intervals)]
		}
	}
	return DefaultInterval
}

func (iv Interval) Valid() bool {
	_, ok := ParseInterval(string(iv))
	return ok
}

// Settings is the optional TOML file tuning ambient behavior.
type Settings struct {
	Logging  LoggingSettings  `toml:"logging"`
	Pager    PagerSettings    `toml:"pager"`
	Executor ExecutorSettings `toml:"executor"`
}

type LoggingSettings struct {
	Level  string `toml:"level" validate:"required,oneof=debug info warn error disabled"`
	Format string `toml:"format" validate:"required,oneof=console json"`
}

type PagerSettings struct {
	LinesPerPage int `toml:"lines_per_page" validate:"gte=0,lte=1000"`
}

type ExecutorSettings struct {
	Shell string `toml:"shell" validate:"required,startswith=/"`
}
