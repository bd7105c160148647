package vtimezone

import (
	"strings"
	"testing"
	"time"

	"github.com/cyp0633/tzeval/evaluation"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRaw stores value verbatim; SetText would escape the separators of
// RRULE and RDATE values
func setRaw(comp *ical.Component, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	comp.Props.Set(prop)
}

func newYorkComponent() *ical.Component {
	timezone := ical.NewComponent(ical.CompTimezone)
	timezone.Props.SetText(ical.PropTimezoneID, "America/New_York")

	standard := ical.NewComponent("STANDARD")
	setRaw(standard, "DTSTART", "20071104T020000")
	setRaw(standard, "TZOFFSETFROM", "-0400")
	setRaw(standard, "TZOFFSETTO", "-0500")
	setRaw(standard, "TZNAME", "EST")
	setRaw(standard, "RRULE", "FREQ=YEARLY;BYMONTH=11;BYDAY=1SU")
	timezone.Children = append(timezone.Children, standard)

	daylight := ical.NewComponent("DAYLIGHT")
	setRaw(daylight, "DTSTART", "20070311T020000")
	setRaw(daylight, "TZOFFSETFROM", "-0500")
	setRaw(daylight, "TZOFFSETTO", "-0400")
	setRaw(daylight, "TZNAME", "EDT")
	setRaw(daylight, "RRULE", "FREQ=YEARLY;BYMONTH=3;BYDAY=2SU")
	timezone.Children = append(timezone.Children, daylight)

	return timezone
}

func TestFromComponent(t *testing.T) {
	tz, err := FromComponent(newYorkComponent())
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", tz.ID())
	observances := tz.Observances()
	require.Len(t, observances, 2)
	assert.Equal(t, "EST", observances[0].Name())
	assert.Equal(t, "EDT", observances[1].Name())

	standard := tz.ObservancesOf(KindStandard)
	require.Len(t, standard, 1)
	assert.Equal(t, -4*time.Hour, standard[0].FromOffset)
	assert.Equal(t, -5*time.Hour, standard[0].ToOffset)
	assert.Equal(t, time.Date(2007, 11, 4, 6, 0, 0, 0, time.UTC), standard[0].Start().MustGet())
	assert.NotEmpty(t, standard[0].ID)
	assert.NotNil(t, standard[0].Evaluator())

	daylight := tz.ObservancesOf(KindDaylight)
	require.Len(t, daylight, 1)
	assert.Equal(t, time.Date(2007, 3, 11, 7, 0, 0, 0, time.UTC), daylight[0].Start().MustGet())
	assert.NotEqual(t, standard[0].ID, daylight[0].ID)

	assert.Equal(t, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC),
		standard[0].OffsetTo(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestFromComponent_Evaluates(t *testing.T) {
	tz, err := FromComponent(newYorkComponent())
	require.NoError(t, err)

	e := evaluation.NewTimeZoneEvaluator(tz)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periods := e.Evaluate(start, start, start.AddDate(0, 1, 0))
	require.NotEmpty(t, periods)

	occ, ok := e.ObservanceAt(time.Date(2024, 7, 4, 16, 0, 0, 0, time.UTC)).Get()
	require.True(t, ok)
	assert.Equal(t, "EDT", occ.Source.Name())
	assert.Equal(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC), occ.Period.Start)
	assert.Equal(t, time.Date(2024, 11, 3, 5, 59, 59, 999999999, time.UTC), occ.Period.End.MustGet())

	occ, ok = e.ObservanceAt(time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)).Get()
	require.True(t, ok)
	assert.Equal(t, "EST", occ.Source.Name())
}

func TestFromComponent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tz *ical.Component)
	}{
		{
			name:   "missing TZID",
			mutate: func(tz *ical.Component) { tz.Props.Del(ical.PropTimezoneID) },
		},
		{
			name:   "missing DTSTART",
			mutate: func(tz *ical.Component) { tz.Children[0].Props.Del("DTSTART") },
		},
		{
			name:   "malformed DTSTART",
			mutate: func(tz *ical.Component) { setRaw(tz.Children[0], "DTSTART", "yesterday") },
		},
		{
			name:   "missing TZOFFSETTO",
			mutate: func(tz *ical.Component) { tz.Children[1].Props.Del("TZOFFSETTO") },
		},
		{
			name:   "malformed TZOFFSETFROM",
			mutate: func(tz *ical.Component) { setRaw(tz.Children[1], "TZOFFSETFROM", "0500") },
		},
		{
			name:   "invalid RRULE",
			mutate: func(tz *ical.Component) { setRaw(tz.Children[0], "RRULE", "FREQ=NEVER") },
		},
		{
			name:   "no observances",
			mutate: func(tz *ical.Component) { tz.Children = nil },
		},
		{
			name:   "wrong component",
			mutate: func(tz *ical.Component) { tz.Name = ical.CompEvent },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := newYorkComponent()
			tt.mutate(comp)
			_, err := FromComponent(comp)
			assert.ErrorIs(t, err, ErrInvalidTimeZone)
		})
	}
}

func TestFromCalendar(t *testing.T) {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//tzeval//test//EN",
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Berlin",
		"BEGIN:DAYLIGHT",
		"TZOFFSETFROM:+0100",
		"TZOFFSETTO:+0200",
		"TZNAME:CEST",
		"DTSTART:19700329T020000",
		"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
		"END:DAYLIGHT",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"TZNAME:CET",
		"DTSTART:19701025T030000",
		"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VTIMEZONE",
		"TZID:Asia/Shanghai",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0800",
		"TZOFFSETTO:+0800",
		"TZNAME:CST",
		"DTSTART:19700101T000000",
		"END:STANDARD",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"UID:event-1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;TZID=Europe/Berlin:20240101T100000",
		"SUMMARY:Not a time zone",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	cal, err := ical.NewDecoder(strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")).Decode()
	require.NoError(t, err)

	zones, err := FromCalendar(cal)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "Europe/Berlin", zones[0].ID())
	assert.Equal(t, "Asia/Shanghai", zones[1].ID())

	e := evaluation.NewTimeZoneEvaluator(zones[0])
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.Evaluate(start, start, start.AddDate(1, 0, 0))
	occ, ok := e.ObservanceAt(time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC)).Get()
	require.True(t, ok)
	assert.Equal(t, "CEST", occ.Source.Name())
	// the last Sunday of March 2024, 02:00 CET
	assert.Equal(t, time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC), occ.Period.Start)

	shanghai := evaluation.NewTimeZoneEvaluator(zones[1])
	periods := shanghai.Evaluate(start, start, start.AddDate(1, 0, 0))
	require.Len(t, periods, 1)
	assert.Equal(t, time.Date(1969, 12, 31, 16, 0, 0, 0, time.UTC), periods[0].Start)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), periods[0].End.MustGet())

	empty, err := FromCalendar(nil)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseUTCOffset(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
		wantErr  bool
	}{
		{value: "-0500", expected: -5 * time.Hour},
		{value: "+0100", expected: time.Hour},
		{value: "+0530", expected: 5*time.Hour + 30*time.Minute},
		{value: "-0045", expected: -45 * time.Minute},
		{value: "+053045", expected: 5*time.Hour + 30*time.Minute + 45*time.Second},
		{value: "0500", wantErr: true},
		{value: "+05", wantErr: true},
		{value: "+0560", wantErr: true},
		{value: "+ab00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			offset, err := parseUTCOffset(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, offset)
		})
	}
}

func TestParseRecurrenceDates(t *testing.T) {
	comp := ical.NewComponent("STANDARD")
	comp.Props.Add(&ical.Prop{
		Name:  ical.PropRecurrenceDates,
		Value: "19671029T020000,19681027T020000",
	})
	comp.Props.Add(&ical.Prop{
		Name:   ical.PropRecurrenceDates,
		Value:  "19691026",
		Params: ical.Params{ical.ParamValue: []string{"DATE"}},
	})
	comp.Props.Add(&ical.Prop{
		Name:   ical.PropRecurrenceDates,
		Value:  "19701025T020000/PT1H",
		Params: ical.Params{ical.ParamValue: []string{"PERIOD"}},
	})

	rdates, err := parseRecurrenceDates(comp)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(1967, 10, 29, 2, 0, 0, 0, time.UTC),
		time.Date(1968, 10, 27, 2, 0, 0, 0, time.UTC),
		time.Date(1969, 10, 26, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 10, 25, 2, 0, 0, 0, time.UTC),
	}, rdates)

	bad := ical.NewComponent("STANDARD")
	setRaw(bad, ical.PropRecurrenceDates, "not-a-date")
	_, err = parseRecurrenceDates(bad)
	assert.Error(t, err)
}

func TestObservance_RDatesOnly(t *testing.T) {
	comp := ical.NewComponent("STANDARD")
	setRaw(comp, "DTSTART", "19671029T020000")
	setRaw(comp, "TZOFFSETFROM", "-0400")
	setRaw(comp, "TZOFFSETTO", "-0500")
	setRaw(comp, ical.PropRecurrenceDates, "19681027T020000")

	obs, err := NewObservance(comp)
	require.NoError(t, err)
	assert.Equal(t, "STANDARD", obs.Name())

	periods := obs.Evaluator().Evaluate(obs.Start().MustGet(), obs.Start().MustGet(),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, periods, 2)
	assert.Equal(t, time.Date(1968, 10, 27, 6, 0, 0, 0, time.UTC), periods[1].Start)

	var empty Observance
	assert.Nil(t, empty.Evaluator())
	assert.True(t, empty.Start().IsAbsent())
}
