package evaluation

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Lookahead is the calendar distance evaluated past the requested start.
type Lookahead struct {
	Years  int `yaml:"years"`
	Months int `yaml:"months"`
	Days   int `yaml:"days"`
}

// Advance returns t moved forward by the lookahead.
func (l Lookahead) Advance(t time.Time) time.Time {
	return t.AddDate(l.Years, l.Months, l.Days)
}

// IsZero reports whether the lookahead covers no time at all.
func (l Lookahead) IsZero() bool {
	return l.Years == 0 && l.Months == 0 && l.Days == 0
}

func (l Lookahead) String() string {
	return fmt.Sprintf("%dy%dm%dd", l.Years, l.Months, l.Days)
}

// Config holds configuration options for time-zone evaluation
type Config struct {
	// Lookahead is added to the requested start to obtain the horizon of each
	// observance. One year suits zones whose rules recur yearly; zones whose
	// observances change less often need a longer lookahead.
	Lookahead Lookahead

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// DefaultConfig evaluates one calendar year ahead
var DefaultConfig = Config{
	Lookahead: Lookahead{Years: 1},
}

func (c Config) withDefaults() Config {
	if c.Lookahead.IsZero() {
		c.Lookahead = DefaultConfig.Lookahead
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
