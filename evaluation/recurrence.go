package evaluation

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

// RecurrenceEvaluator expands the onsets of an observance from its DTSTART,
// RRULE and RDATE values. Those values are wall-clock times in the offset
// that is in effect before the onset, so they are expanded as floating times
// and shifted to instants afterwards.
//
// Expansions are cached: a call only expands the parts of its window that lie
// outside the bounds already evaluated.
type RecurrenceEvaluator struct {
	Window

	set    *rrule.Set
	offset time.Duration
}

// NewRecurrenceEvaluator creates an evaluator for an observance starting at
// the wall time dtstart. rule is an RRULE value without the "RRULE:" prefix
// and may be empty. offset is the UTC offset in effect before each onset.
func NewRecurrenceEvaluator(dtstart time.Time, rule string, rdates []time.Time, offset time.Duration) (*RecurrenceEvaluator, error) {
	wall := floating(dtstart)

	set := &rrule.Set{}
	if rule != "" {
		r, err := rrule.StrToRRule(rule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE '%s': %w", rule, err)
		}
		r.DTStart(wall)
		set.RRule(r)
	}
	// DTSTART is always the first onset, whether or not the rule matches it.
	set.RDate(wall)
	for _, rdate := range rdates {
		set.RDate(floating(rdate))
	}

	return &RecurrenceEvaluator{
		Window: newWindow(),
		set:    set,
		offset: offset,
	}, nil
}

// Evaluate returns the onsets in [max(anchor, from), to), ascending.
func (e *RecurrenceEvaluator) Evaluate(anchor, from, to time.Time) []Period {
	lo := from
	if anchor.After(lo) {
		lo = anchor
	}
	if !to.After(lo) {
		return nil
	}

	if !e.Covers(lo, to) {
		e.extend(lo, to)
	}

	var out []Period
	for _, p := range e.periods.Items() {
		if !p.Start.Before(lo) && p.Start.Before(to) {
			out = append(out, p)
		}
	}
	return out
}

// extend expands the parts of [lo, to) outside the evaluated bounds and
// widens the bounds to include the whole range.
func (e *RecurrenceEvaluator) extend(lo, to time.Time) {
	if start, ok := e.startBounds.Get(); !ok {
		e.merge(e.expand(lo, to))
	} else {
		end, _ := e.endBounds.Get()
		if lo.Before(start) {
			e.merge(e.expand(lo, start))
		}
		if to.After(end) {
			e.merge(e.expand(end, to))
		}
	}
	e.widenStart(lo)
	e.widenEnd(to)
}

// expand returns the onsets in [from, to) as unresolved periods.
func (e *RecurrenceEvaluator) expand(from, to time.Time) []Period {
	wallFrom := from.UTC().Add(e.offset)
	wallTo := to.UTC().Add(e.offset)

	// Between is inclusive of both ends when inc is true
	times := e.set.Between(wallFrom, wallTo, true)

	periods := make([]Period, 0, len(times))
	for _, t := range times {
		if !t.Before(wallTo) {
			continue
		}
		periods = append(periods, NewPeriod(t.Add(-e.offset)))
	}
	return periods
}

// merge adds periods to the cache, keeping it sorted and free of duplicates.
func (e *RecurrenceEvaluator) merge(periods []Period) {
	if len(periods) == 0 {
		return
	}
	all := append(e.periods.Items(), periods...)
	slices.SortStableFunc(all, ComparePeriods)
	all = slices.CompactFunc(all, Period.Equal)
	e.periods.Replace(all)
}

// floating keeps the wall clock of t and drops its location.
func floating(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
