package evaluation

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"
)

// ObservanceEvaluator yields the onsets of an observance: periods whose
// start is an offset change and whose end is left unset.
type ObservanceEvaluator interface {
	Evaluate(anchor, from, to time.Time) []Period
}

// Observance is one rule of a time zone, such as its standard or daylight
// time. Occurrences compare observances by identity, so implementations
// should be pointer types.
type Observance interface {
	// Name identifies the observance in logs, e.g. "EST".
	Name() string
	// Start is the instant the observance first takes effect.
	Start() mo.Option[time.Time]
	// OffsetTo converts t to the wall clock of the observance.
	OffsetTo(t time.Time) time.Time
	// Evaluator expands the observance's recurrence.
	Evaluator() ObservanceEvaluator
}

// TimeZone is a set of observances in declaration order.
type TimeZone interface {
	ID() string
	Observances() []Observance
}

// TimeZoneEvaluator computes when each observance of a time zone is in
// effect. Observance evaluators only know onsets; the end of every period is
// derived from the onset that follows it.
type TimeZoneEvaluator struct {
	Window

	tz          TimeZone
	occurrences []Occurrence // as produced, without duplicates
	resolved    []Occurrence // sorted, with ends filled in
	config      Config
	logger      *slog.Logger
}

// NewTimeZoneEvaluator creates an evaluator for tz using DefaultConfig
func NewTimeZoneEvaluator(tz TimeZone) *TimeZoneEvaluator {
	return NewTimeZoneEvaluatorWithConfig(tz, DefaultConfig)
}

// NewTimeZoneEvaluatorWithConfig creates an evaluator for tz with custom configuration
func NewTimeZoneEvaluatorWithConfig(tz TimeZone, config Config) *TimeZoneEvaluator {
	if tz == nil {
		panic("evaluation: time zone must not be nil")
	}
	config = config.withDefaults()
	return &TimeZoneEvaluator{
		Window: newWindow(),
		tz:     tz,
		config: config,
		logger: config.Logger.With("tzid", tz.ID()),
	}
}

// TimeZone returns the zone being evaluated.
func (e *TimeZoneEvaluator) TimeZone() TimeZone { return e.tz }

// Occurrences returns the resolved occurrences ordered by start.
func (e *TimeZoneEvaluator) Occurrences() []Occurrence {
	return slices.Clone(e.resolved)
}

// Clear forgets every computed period and occurrence.
func (e *TimeZoneEvaluator) Clear() {
	e.Window.Clear()
	e.occurrences = nil
	e.resolved = nil
}

// Evaluate makes sure every observance is evaluated up to one lookahead past
// startTime and returns the resolved periods of the zone. Observances are
// only re-evaluated when that horizon lies beyond what is already known.
// fromTime and toTime are accepted to satisfy Evaluator; the covered range
// is driven by the observance starts and the horizon.
func (e *TimeZoneEvaluator) Evaluate(startTime, fromTime, toTime time.Time) []Period {
	evaluated := false
	newEnd := e.endBounds

	for _, obs := range e.tz.Observances() {
		start, ok := obs.Start().Get()
		if !ok {
			panic(fmt.Sprintf("evaluation: observance %q of %q has no effective start", obs.Name(), e.tz.ID()))
		}
		evaluator := obs.Evaluator()
		if evaluator == nil {
			panic(fmt.Sprintf("evaluation: observance %q of %q has no evaluator", obs.Name(), e.tz.ID()))
		}

		e.widenStart(start)

		horizon := e.config.Lookahead.Advance(obs.OffsetTo(startTime))
		if !e.beyondEnd(horizon) {
			continue
		}

		periods := evaluator.Evaluate(start, start, horizon)
		added := 0
		for _, p := range periods {
			occ := Occurrence{Source: obs, Period: p}
			if !slices.ContainsFunc(e.occurrences, occ.Equal) {
				e.occurrences = append(e.occurrences, occ)
				added++
			}
		}
		e.logger.Debug("evaluated observance",
			"observance", obs.Name(),
			"horizon", horizon,
			"periods", len(periods),
			"new_occurrences", added)

		if end, ok := newEnd.Get(); !ok || horizon.After(end) {
			newEnd = mo.Some(horizon)
		}
		evaluated = true
	}

	if evaluated {
		if end, ok := newEnd.Get(); ok {
			e.widenEnd(end)
		}
		e.processOccurrences()
	}

	return e.Periods()
}

// processOccurrences sorts the occurrences and derives every end from the
// next onset, or from the horizon for the last one. Ends are recalculated
// from scratch each time, so a wider horizon only moves the last end.
func (e *TimeZoneEvaluator) processOccurrences() {
	sorted := slices.Clone(e.occurrences)
	slices.SortStableFunc(sorted, func(a, b Occurrence) int {
		return ComparePeriods(a.Period, b.Period)
	})

	end, _ := e.endBounds.Get()
	periods := make([]Period, len(sorted))
	for i := range sorted {
		if i < len(sorted)-1 {
			sorted[i].Period = sorted[i].Period.WithEnd(sorted[i+1].Period.Start.Add(-Resolution))
		} else {
			sorted[i].Period = sorted[i].Period.WithEnd(end)
		}
		periods[i] = sorted[i].Period
	}

	e.resolved = sorted
	e.periods.Replace(periods)
	e.logger.Debug("resolved occurrences", "count", len(sorted), "end_bounds", end)
}

// ObservanceAt returns the occurrence in effect at t, if t lies within the
// evaluated periods.
func (e *TimeZoneEvaluator) ObservanceAt(t time.Time) mo.Option[Occurrence] {
	// The latest onset not after t wins.
	i, found := slices.BinarySearchFunc(e.resolved, t, func(o Occurrence, t time.Time) int {
		return o.Period.Start.Compare(t)
	})
	if !found {
		i--
	}
	if i < 0 {
		return mo.None[Occurrence]()
	}
	// Several onsets may share an instant; the last one in order is in effect.
	for i+1 < len(e.resolved) && e.resolved[i+1].Period.Start.Equal(e.resolved[i].Period.Start) {
		i++
	}
	if !e.resolved[i].Period.Contains(t) {
		return mo.None[Occurrence]()
	}
	return mo.Some(e.resolved[i])
}
