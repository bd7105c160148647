package vtimezone

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const (
	layoutDateTime    = "20060102T150405"
	layoutDateTimeUTC = "20060102T150405Z"
	layoutDate        = "20060102"
)

// parseUTCOffset parses a UTC-OFFSET value such as "-0500" or "+053000".
func parseUTCOffset(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if len(value) != 5 && len(value) != 7 {
		return 0, fmt.Errorf("malformed UTC offset %q", value)
	}

	var sign time.Duration
	switch value[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("UTC offset %q has no sign", value)
	}

	fields := []time.Duration{time.Hour, time.Minute, time.Second}
	var offset time.Duration
	for i, unit := range fields {
		pos := 1 + 2*i
		if pos >= len(value) {
			break
		}
		n, err := strconv.Atoi(value[pos : pos+2])
		if err != nil || n < 0 || (unit != time.Hour && n > 59) {
			return 0, fmt.Errorf("malformed UTC offset %q", value)
		}
		offset += time.Duration(n) * unit
	}
	return sign * offset, nil
}

// parseWallTime parses a DATE or DATE-TIME value as a floating wall time.
// A trailing Z is accepted and dropped: observance times are always local.
func parseWallTime(value string, params ical.Params) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(params.Get(ical.ParamValue), "DATE") {
		return time.Parse(layoutDate, value)
	}
	if strings.HasSuffix(value, "Z") {
		return time.Parse(layoutDateTimeUTC, value)
	}
	if t, err := time.Parse(layoutDateTime, value); err == nil {
		return t, nil
	}
	// Fall back to a date-only value without the VALUE parameter
	return time.Parse(layoutDate, value)
}

// parseRecurrenceDates parses every RDATE property of comp. PERIOD values
// contribute their start.
func parseRecurrenceDates(comp *ical.Component) ([]time.Time, error) {
	var rdates []time.Time
	for _, prop := range comp.Props[ical.PropRecurrenceDates] {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if start, _, isPeriod := strings.Cut(part, "/"); isPeriod {
				part = start
			}
			rdate, err := parseWallTime(part, prop.Params)
			if err != nil {
				return nil, fmt.Errorf("invalid RDATE %q: %w", part, err)
			}
			rdates = append(rdates, rdate)
		}
	}
	return rdates, nil
}
