package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func starts(periods []Period) []time.Time {
	out := make([]time.Time, len(periods))
	for i, p := range periods {
		out[i] = p.Start
	}
	return out
}

func TestRecurrenceEvaluator_YearlyRule(t *testing.T) {
	// US daylight time onsets, 02:00 wall time at UTC-5
	e, err := NewRecurrenceEvaluator(time.Date(2007, 3, 11, 2, 0, 0, 0, time.UTC),
		"FREQ=YEARLY;BYMONTH=3;BYDAY=2SU", nil, -5*time.Hour)
	require.NoError(t, err)

	periods := e.Evaluate(date(2020, 1, 1), date(2020, 1, 1), date(2023, 1, 1))
	assert.Equal(t, []time.Time{
		time.Date(2020, 3, 8, 7, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 14, 7, 0, 0, 0, time.UTC),
		time.Date(2022, 3, 13, 7, 0, 0, 0, time.UTC),
	}, starts(periods))
	for _, p := range periods {
		assert.False(t, p.Resolved())
	}
}

func TestRecurrenceEvaluator_Caching(t *testing.T) {
	e, err := NewRecurrenceEvaluator(time.Date(2007, 3, 11, 2, 0, 0, 0, time.UTC),
		"FREQ=YEARLY;BYMONTH=3;BYDAY=2SU", nil, -5*time.Hour)
	require.NoError(t, err)

	e.Evaluate(date(2020, 1, 1), date(2020, 1, 1), date(2022, 1, 1))
	assert.Equal(t, date(2020, 1, 1), e.StartBounds().MustGet())
	assert.Equal(t, date(2022, 1, 1), e.EndBounds().MustGet())
	assert.Len(t, e.Periods(), 2)

	t.Run("narrower window is served from the cache", func(t *testing.T) {
		require.True(t, e.Covers(date(2021, 1, 1), date(2022, 1, 1)))

		// a covered window must not expand again, so an empty set changes nothing
		set := e.set
		e.set = &rrule.Set{}
		periods := e.Evaluate(date(2021, 1, 1), date(2021, 1, 1), date(2022, 1, 1))
		e.set = set

		assert.Equal(t, []time.Time{time.Date(2021, 3, 14, 7, 0, 0, 0, time.UTC)}, starts(periods))
		assert.Equal(t, date(2020, 1, 1), e.StartBounds().MustGet())
		assert.Equal(t, date(2022, 1, 1), e.EndBounds().MustGet())
	})

	t.Run("wider window extends both bounds", func(t *testing.T) {
		periods := e.Evaluate(date(2019, 1, 1), date(2019, 1, 1), date(2023, 1, 1))
		assert.Len(t, periods, 4)
		assert.Len(t, e.Periods(), 4)
		assert.Equal(t, date(2019, 1, 1), e.StartBounds().MustGet())
		assert.Equal(t, date(2023, 1, 1), e.EndBounds().MustGet())
		assert.True(t, e.Covers(date(2019, 6, 1), date(2022, 6, 1)))
		assert.False(t, e.Covers(date(2018, 6, 1), date(2022, 6, 1)))
	})

	t.Run("clear forgets the cache", func(t *testing.T) {
		e.Clear()
		assert.Empty(t, e.Periods())
		assert.True(t, e.EndBounds().IsAbsent())
	})
}

func TestRecurrenceEvaluator_WindowEdges(t *testing.T) {
	e, err := NewRecurrenceEvaluator(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "FREQ=DAILY", nil, 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		anchor   time.Time
		from     time.Time
		to       time.Time
		expected []time.Time
	}{
		{
			name:     "end is exclusive",
			anchor:   date(2020, 1, 1),
			from:     date(2020, 1, 1),
			to:       date(2020, 1, 3),
			expected: []time.Time{date(2020, 1, 1), date(2020, 1, 2)},
		},
		{
			name:     "anchor after from clamps the window",
			anchor:   date(2020, 1, 5),
			from:     date(2020, 1, 1),
			to:       date(2020, 1, 7),
			expected: []time.Time{date(2020, 1, 5), date(2020, 1, 6)},
		},
		{
			name:   "empty window",
			anchor: date(2020, 1, 5),
			from:   date(2020, 1, 5),
			to:     date(2020, 1, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := e.Evaluate(tt.anchor, tt.from, tt.to)
			if tt.expected == nil {
				assert.Empty(t, periods)
				return
			}
			assert.Equal(t, tt.expected, starts(periods))
		})
	}
}

func TestRecurrenceEvaluator_WithoutRule(t *testing.T) {
	rdates := []time.Time{
		time.Date(2021, 4, 1, 3, 0, 0, 0, time.UTC),
		// a duplicate of DTSTART collapses into one onset
		time.Date(2020, 4, 1, 3, 0, 0, 0, time.UTC),
	}
	e, err := NewRecurrenceEvaluator(time.Date(2020, 4, 1, 3, 0, 0, 0, time.UTC), "", rdates, 11*time.Hour)
	require.NoError(t, err)

	periods := e.Evaluate(date(2000, 1, 1), date(2000, 1, 1), date(2030, 1, 1))
	assert.Equal(t, []time.Time{
		time.Date(2020, 3, 31, 16, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 31, 16, 0, 0, 0, time.UTC),
	}, starts(periods))
}

func TestRecurrenceEvaluator_InvalidRule(t *testing.T) {
	_, err := NewRecurrenceEvaluator(date(2020, 1, 1), "FREQ=SOMETIMES", nil, 0)
	assert.Error(t, err)
}

func TestPeriod(t *testing.T) {
	p := NewPeriod(date(2020, 1, 1))
	assert.False(t, p.Resolved())
	assert.Zero(t, p.Duration())
	assert.True(t, p.Contains(date(2050, 1, 1)))
	assert.False(t, p.Contains(date(2019, 12, 31)))

	r := p.WithEnd(date(2020, 2, 1))
	assert.False(t, p.Resolved(), "resolving returns a copy")
	assert.True(t, r.Resolved())
	assert.Equal(t, 31*24*time.Hour, r.Duration())
	assert.True(t, r.Contains(date(2020, 2, 1)))
	assert.False(t, r.Contains(date(2020, 2, 2)))

	assert.True(t, r.Equal(NewPeriod(date(2020, 1, 1).In(time.FixedZone("X", 3600))).WithEnd(date(2020, 2, 1))))
	assert.False(t, r.Equal(p))
	assert.False(t, p.Equal(r))
	assert.True(t, p.Equal(NewPeriod(date(2020, 1, 1))))

	assert.Equal(t, "[2020-01-01T00:00:00Z, ...)", p.String())
	assert.Equal(t, "[2020-01-01T00:00:00Z, 2020-02-01T00:00:00Z]", r.String())
}
