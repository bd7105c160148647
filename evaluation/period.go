package evaluation

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Resolution is the smallest step between the end of one period and the
// start of the next.
const Resolution = time.Nanosecond

// Period is a time interval. End stays unset until the period is resolved
// against its neighbours.
type Period struct {
	Start time.Time
	End   mo.Option[time.Time]
}

// NewPeriod creates an unresolved period starting at start.
func NewPeriod(start time.Time) Period {
	return Period{Start: start, End: mo.None[time.Time]()}
}

// WithEnd returns a copy of p resolved to end.
func (p Period) WithEnd(end time.Time) Period {
	return Period{Start: p.Start, End: mo.Some(end)}
}

// HasStart reports whether the period has a start instant.
func (p Period) HasStart() bool { return !p.Start.IsZero() }

// Resolved reports whether the period has an end instant.
func (p Period) Resolved() bool { return p.End.IsPresent() }

// Duration returns End - Start, or zero for an unresolved period.
func (p Period) Duration() time.Duration {
	end, ok := p.End.Get()
	if !ok {
		return 0
	}
	return end.Sub(p.Start)
}

// Contains reports whether t falls within the period. Ends produced by gap
// filling are inclusive, so a resolved period contains both its bounds.
// An unresolved period contains every instant from its start on.
func (p Period) Contains(t time.Time) bool {
	if t.Before(p.Start) {
		return false
	}
	end, ok := p.End.Get()
	return !ok || !t.After(end)
}

// Equal compares instants rather than time.Time representations.
func (p Period) Equal(o Period) bool {
	if !p.Start.Equal(o.Start) {
		return false
	}
	pe, pok := p.End.Get()
	oe, ook := o.End.Get()
	if pok != ook {
		return false
	}
	return !pok || pe.Equal(oe)
}

func (p Period) String() string {
	end, ok := p.End.Get()
	if !ok {
		return fmt.Sprintf("[%s, ...)", p.Start.Format(time.RFC3339Nano))
	}
	return fmt.Sprintf("[%s, %s]", p.Start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano))
}

// ComparePeriods orders periods by start. A period without a start sorts
// before one with a start.
func ComparePeriods(a, b Period) int {
	switch {
	case !a.HasStart() && !b.HasStart():
		return 0
	case !a.HasStart():
		return -1
	case !b.HasStart():
		return 1
	}
	return a.Start.Compare(b.Start)
}

// Occurrence pairs a period with the observance that produced it.
type Occurrence struct {
	Source Observance
	Period Period
}

// Equal requires the very same source and an equal period.
func (o Occurrence) Equal(other Occurrence) bool {
	return o.Source == other.Source && o.Period.Equal(other.Period)
}

// Offset returns the UTC offset the source observance applies at t.
func (o Occurrence) Offset(t time.Time) time.Duration {
	utc := t.UTC()
	return o.Source.OffsetTo(utc).Sub(utc)
}

func (o Occurrence) String() string {
	name := "<nil>"
	if o.Source != nil {
		name = o.Source.Name()
	}
	return fmt.Sprintf("%s %s", name, o.Period)
}
