package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cyp0633/tzeval/tzcache"
	"github.com/cyp0633/tzeval/vtimezone"
	"github.com/emersion/go-ical"
)

func loadZones(path string) ([]*vtimezone.TimeZone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cal, err := ical.NewDecoder(f).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	zones, err := vtimezone.FromCalendar(cal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return zones, nil
}

// openRegistry registers every zone of the file. The caller closes the registry.
func (a *app) openRegistry(path string) (*tzcache.Registry, error) {
	zones, err := loadZones(path)
	if err != nil {
		return nil, err
	}

	// A single run never outlives the TTL
	rc := a.cfg.Registry(a.logger)
	rc.CleanupInterval = 0

	registry := tzcache.NewRegistry(rc)
	for _, tz := range zones {
		registry.Register(tz)
	}
	a.logger.Debug("loaded time zones", "file", path, "count", len(zones))
	return registry, nil
}

// parseInstant accepts RFC 3339 date-times and plain dates, which are taken as UTC midnight.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func formatOffset(d time.Duration) string {
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}
