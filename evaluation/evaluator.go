// Package evaluation turns recurring time-zone observances into concrete,
// contiguous periods. Evaluators cache their results against a horizon that
// only ever grows, so widening the requested window does not recompute
// what is already known.
//
// Evaluators are not safe for concurrent use.
package evaluation

import (
	"time"

	"github.com/cyp0633/tzeval/collection"
	"github.com/samber/mo"
)

// Evaluator computes periods across a window that widens between calls.
type Evaluator interface {
	// Evaluate returns the periods known after covering [from, to).
	// start anchors the recurrence being evaluated.
	Evaluate(start, from, to time.Time) []Period
	// Clear forgets every computed period and resets the bounds.
	Clear()
}

// Window holds the bookkeeping shared by evaluators: the bounds evaluated so
// far and the periods accumulated within them.
type Window struct {
	startBounds mo.Option[time.Time]
	endBounds   mo.Option[time.Time]
	periods     *collection.SliceList[Period]
}

func newWindow() Window {
	return Window{
		startBounds: mo.None[time.Time](),
		endBounds:   mo.None[time.Time](),
		periods:     collection.NewSliceListFunc(Period.Equal),
	}
}

// StartBounds is the earliest instant evaluated so far.
func (w *Window) StartBounds() mo.Option[time.Time] { return w.startBounds }

// EndBounds is the horizon evaluated so far.
func (w *Window) EndBounds() mo.Option[time.Time] { return w.endBounds }

// Periods returns a snapshot of the accumulated periods.
func (w *Window) Periods() []Period { return w.periods.Items() }

// PeriodList exposes the live period list, suitable for attaching to a
// collection.CompositeList.
func (w *Window) PeriodList() collection.List[Period] { return w.periods }

// Covers reports whether [from, to) lies within the evaluated bounds.
func (w *Window) Covers(from, to time.Time) bool {
	start, ok := w.startBounds.Get()
	if !ok {
		return false
	}
	end, _ := w.endBounds.Get()
	return !from.Before(start) && !to.After(end)
}

// Clear resets the bounds and drops every period.
func (w *Window) Clear() {
	w.startBounds = mo.None[time.Time]()
	w.endBounds = mo.None[time.Time]()
	w.periods.Clear()
}

// widenStart moves the start bound to t if t is earlier.
func (w *Window) widenStart(t time.Time) {
	if start, ok := w.startBounds.Get(); !ok || t.Before(start) {
		w.startBounds = mo.Some(t)
	}
}

// widenEnd moves the end bound to t if t is later.
func (w *Window) widenEnd(t time.Time) {
	if end, ok := w.endBounds.Get(); !ok || t.After(end) {
		w.endBounds = mo.Some(t)
	}
}

// beyondEnd reports whether t lies past the evaluated horizon.
func (w *Window) beyondEnd(t time.Time) bool {
	end, ok := w.endBounds.Get()
	return !ok || end.Before(t)
}
