// Package vtimezone builds evaluable time zones from iCalendar VTIMEZONE
// components decoded by go-ical.
package vtimezone

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/tzeval/evaluation"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

const (
	compStandard = "STANDARD"
	compDaylight = "DAYLIGHT"

	propOffsetFrom = "TZOFFSETFROM"
	propOffsetTo   = "TZOFFSETTO"
	propName       = "TZNAME"
)

// ErrInvalidTimeZone is returned when a VTIMEZONE lacks required data
var ErrInvalidTimeZone = errors.New("invalid time zone")

// Kind tells standard time and daylight saving time apart.
type Kind string

const (
	KindStandard Kind = compStandard
	KindDaylight Kind = compDaylight
)

// Observance is a STANDARD or DAYLIGHT sub-component of a VTIMEZONE.
type Observance struct {
	// ID uniquely identifies the observance, even among zones sharing TZNAMEs.
	ID   string
	Kind Kind
	// TZName is the customary abbreviation, e.g. "EST". It may be empty.
	TZName string
	// DTStart is the wall time of the first onset, in FromOffset.
	DTStart time.Time
	// FromOffset is the UTC offset in effect before each onset.
	FromOffset time.Duration
	// ToOffset is the UTC offset in effect during the observance.
	ToOffset time.Duration
	RRule    string
	RDates   []time.Time

	start     time.Time
	evaluator *evaluation.RecurrenceEvaluator
}

// NewObservance builds an observance from its iCalendar component.
func NewObservance(comp *ical.Component) (*Observance, error) {
	var kind Kind
	switch comp.Name {
	case compStandard:
		kind = KindStandard
	case compDaylight:
		kind = KindDaylight
	default:
		return nil, fmt.Errorf("%w: unexpected component %s", ErrInvalidTimeZone, comp.Name)
	}

	obs := &Observance{ID: uuid.NewString(), Kind: kind}

	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil || dtstart.Value == "" {
		return nil, fmt.Errorf("%w: %s has no DTSTART", ErrInvalidTimeZone, kind)
	}
	start, err := parseWallTime(dtstart.Value, dtstart.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s DTSTART: %v", ErrInvalidTimeZone, kind, err)
	}
	obs.DTStart = start

	if obs.FromOffset, err = requiredOffset(comp, propOffsetFrom); err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidTimeZone, kind, err)
	}
	if obs.ToOffset, err = requiredOffset(comp, propOffsetTo); err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidTimeZone, kind, err)
	}

	if name := comp.Props.Get(propName); name != nil {
		obs.TZName = name.Value
	}
	if rrule := comp.Props.Get(ical.PropRecurrenceRule); rrule != nil {
		obs.RRule = rrule.Value
	}
	if obs.RDates, err = parseRecurrenceDates(comp); err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidTimeZone, kind, err)
	}

	obs.start = obs.DTStart.Add(-obs.FromOffset)
	obs.evaluator, err = evaluation.NewRecurrenceEvaluator(obs.DTStart, obs.RRule, obs.RDates, obs.FromOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidTimeZone, kind, err)
	}
	return obs, nil
}

func requiredOffset(comp *ical.Component, name string) (time.Duration, error) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return 0, fmt.Errorf("has no %s", name)
	}
	offset, err := parseUTCOffset(prop.Value)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return offset, nil
}

// Name returns the TZNAME, or the kind when the component has none.
func (o *Observance) Name() string {
	if o.TZName != "" {
		return o.TZName
	}
	return string(o.Kind)
}

// Start is the UTC instant of the first onset.
func (o *Observance) Start() mo.Option[time.Time] {
	if o.start.IsZero() {
		return mo.None[time.Time]()
	}
	return mo.Some(o.start)
}

// OffsetTo returns the wall time of t in this observance.
func (o *Observance) OffsetTo(t time.Time) time.Time {
	return t.UTC().Add(o.ToOffset)
}

// Evaluator expands the onsets of the observance.
func (o *Observance) Evaluator() evaluation.ObservanceEvaluator {
	if o.evaluator == nil {
		return nil
	}
	return o.evaluator
}

// TimeZone is an evaluable VTIMEZONE.
type TimeZone struct {
	TZID        string
	observances []*Observance
}

// FromComponent builds a time zone from a VTIMEZONE component. The
// observances keep the order of the component's children.
func FromComponent(comp *ical.Component) (*TimeZone, error) {
	if comp == nil || comp.Name != ical.CompTimezone {
		return nil, fmt.Errorf("%w: not a %s component", ErrInvalidTimeZone, ical.CompTimezone)
	}
	tzid := comp.Props.Get(ical.PropTimezoneID)
	if tzid == nil || tzid.Value == "" {
		return nil, fmt.Errorf("%w: missing TZID", ErrInvalidTimeZone)
	}

	tz := &TimeZone{TZID: tzid.Value}
	for _, child := range comp.Children {
		if child.Name != compStandard && child.Name != compDaylight {
			continue
		}
		obs, err := NewObservance(child)
		if err != nil {
			return nil, fmt.Errorf("time zone %s: %w", tz.TZID, err)
		}
		tz.observances = append(tz.observances, obs)
	}
	if len(tz.observances) == 0 {
		return nil, fmt.Errorf("%w: time zone %s has no STANDARD or DAYLIGHT component", ErrInvalidTimeZone, tz.TZID)
	}
	return tz, nil
}

// FromCalendar builds every VTIMEZONE of cal.
func FromCalendar(cal *ical.Calendar) ([]*TimeZone, error) {
	if cal == nil || cal.Component == nil {
		return nil, nil
	}
	var zones []*TimeZone
	for _, child := range cal.Children {
		if child.Name != ical.CompTimezone {
			continue
		}
		tz, err := FromComponent(child)
		if err != nil {
			return nil, err
		}
		zones = append(zones, tz)
	}
	return zones, nil
}

// ID returns the TZID.
func (tz *TimeZone) ID() string { return tz.TZID }

// Observances returns the observances in declaration order.
func (tz *TimeZone) Observances() []evaluation.Observance {
	out := make([]evaluation.Observance, len(tz.observances))
	for i, obs := range tz.observances {
		out[i] = obs
	}
	return out
}

// ObservancesOf returns the observances of the given kind.
func (tz *TimeZone) ObservancesOf(kind Kind) []*Observance {
	var out []*Observance
	for _, obs := range tz.observances {
		if obs.Kind == kind {
			out = append(out, obs)
		}
	}
	return out
}
