// Package tzcache keeps one TimeZoneEvaluator per TZID so that evaluated
// periods are shared between callers and dropped when they go unused.
package tzcache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cyp0633/tzeval/collection"
	"github.com/cyp0633/tzeval/evaluation"
	"github.com/samber/mo"
)

// ErrUnknownTimeZone is returned for a TZID that was never registered
var ErrUnknownTimeZone = errors.New("unknown time zone")

const (
	evictExpired  = "expired"
	evictCapacity = "capacity"
)

type entry struct {
	zone       evaluation.TimeZone
	evaluator  *evaluation.TimeZoneEvaluator // nil until evaluated, and again once evicted
	expiresAt  time.Time
	accessedAt time.Time
}

// Registry holds time zones by TZID and caches their evaluators. Zones stay
// registered until removed; evaluators are dropped once idle for longer than
// the TTL or when more than MaxEntries of them are alive.
//
// Registry is safe for concurrent use. Merged views are not: they read the
// evaluators' period lists without holding the registry lock.
type Registry struct {
	entries         map[string]*entry
	mutex           sync.Mutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	evaluation      evaluation.Config
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	metrics         *metrics
	logger          *slog.Logger
	now             func() time.Time
}

// NewRegistry creates a registry with the given configuration
func NewRegistry(config Config) *Registry {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Evaluation.Logger == nil {
		config.Evaluation.Logger = logger
	}

	r := &Registry{
		entries:         make(map[string]*entry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		evaluation:      config.Evaluation,
		stopCleanup:     make(chan struct{}),
		metrics:         newMetrics(),
		logger:          logger,
		now:             time.Now,
	}

	if config.Registerer != nil {
		if err := r.metrics.register(config.Registerer); err != nil {
			logger.Warn("failed to register metrics", "error", err)
		}
	}

	if r.cleanupInterval > 0 {
		go r.cleanupLoop()
	}
	return r
}

// Register adds tz, replacing any zone with the same TZID together with its
// evaluated periods.
func (r *Registry) Register(tz evaluation.TimeZone) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if old, ok := r.entries[tz.ID()]; ok && old.evaluator != nil {
		r.metrics.active.Dec()
	}
	r.entries[tz.ID()] = &entry{zone: tz}
	r.logger.Debug("registered time zone", "tzid", tz.ID(), "observances", len(tz.Observances()))
}

// Unregister removes the zone with the given TZID and reports whether it existed.
func (r *Registry) Unregister(tzid string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.entries[tzid]
	if !ok {
		return false
	}
	if e.evaluator != nil {
		r.metrics.active.Dec()
	}
	delete(r.entries, tzid)
	return true
}

// TZIDs returns the registered TZIDs in lexical order.
func (r *Registry) TZIDs() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// evaluatorFor returns the live evaluator of tzid, creating it if needed.
// The caller must hold the mutex.
func (r *Registry) evaluatorFor(tzid string) (*evaluation.TimeZoneEvaluator, error) {
	e, ok := r.entries[tzid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimeZone, tzid)
	}

	now := r.now()
	if e.evaluator != nil && now.After(e.expiresAt) {
		r.evict(tzid, e, evictExpired)
	}
	if e.evaluator == nil {
		e.evaluator = evaluation.NewTimeZoneEvaluatorWithConfig(e.zone, r.evaluation)
		r.metrics.misses.Inc()
		r.metrics.active.Inc()
	} else {
		r.metrics.hits.Inc()
	}
	e.accessedAt = now
	e.expiresAt = now.Add(r.ttl)

	if r.maxEntries > 0 && r.liveCount() > r.maxEntries {
		r.cleanup(tzid)
	}
	return e.evaluator, nil
}

// Evaluate evaluates the zone registered under tzid.
func (r *Registry) Evaluate(tzid string, start, from, to time.Time) ([]evaluation.Period, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ev, err := r.evaluatorFor(tzid)
	if err != nil {
		return nil, err
	}
	r.metrics.evaluations.Inc()
	return ev.Evaluate(start, from, to), nil
}

// Occurrences evaluates tzid like Evaluate and returns the resolved occurrences.
func (r *Registry) Occurrences(tzid string, start, from, to time.Time) ([]evaluation.Occurrence, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ev, err := r.evaluatorFor(tzid)
	if err != nil {
		return nil, err
	}
	r.metrics.evaluations.Inc()
	ev.Evaluate(start, from, to)
	return ev.Occurrences(), nil
}

// OccurrenceAt returns the observance of tzid in effect at t, evaluating
// the zone far enough to cover t first.
func (r *Registry) OccurrenceAt(tzid string, t time.Time) (mo.Option[evaluation.Occurrence], error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ev, err := r.evaluatorFor(tzid)
	if err != nil {
		return mo.None[evaluation.Occurrence](), err
	}
	r.metrics.evaluations.Inc()
	ev.Evaluate(t, t, t)
	return ev.ObservanceAt(t), nil
}

// OffsetAt returns the UTC offset of tzid at t.
func (r *Registry) OffsetAt(tzid string, t time.Time) (mo.Option[time.Duration], error) {
	occ, err := r.OccurrenceAt(tzid, t)
	if err != nil {
		return mo.None[time.Duration](), err
	}
	o, ok := occ.Get()
	if !ok {
		return mo.None[time.Duration](), nil
	}
	return mo.Some(o.Offset(t)), nil
}

// Merged returns a composite over the period lists of the given zones, in
// argument order. Later evaluations of those zones show through the
// composite without rebuilding it.
func (r *Registry) Merged(tzids ...string) (*collection.CompositeList[evaluation.Period], error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	merged := collection.NewCompositeList[evaluation.Period]()
	for _, tzid := range tzids {
		ev, err := r.evaluatorFor(tzid)
		if err != nil {
			return nil, err
		}
		merged.AddList(ev.PeriodList())
	}
	return merged, nil
}

func (r *Registry) liveCount() int {
	n := 0
	for _, e := range r.entries {
		if e.evaluator != nil {
			n++
		}
	}
	return n
}

// evict drops the evaluator of e. Merged views keep the periods they
// already reference.
func (r *Registry) evict(tzid string, e *entry, reason string) {
	e.evaluator = nil
	r.metrics.evictions.WithLabelValues(reason).Inc()
	r.metrics.active.Dec()
	r.logger.Debug("evicted evaluator", "tzid", tzid, "reason", reason)
}

// cleanup drops expired evaluators, then the least recently accessed ones
// while over the limit. The evaluator of keep is never evicted for capacity;
// pass "" to consider every entry. The caller must hold the mutex.
func (r *Registry) cleanup(keep string) {
	now := r.now()

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	var candidates []keyAccess
	live := 0

	for key, e := range r.entries {
		if e.evaluator == nil {
			continue
		}
		if now.After(e.expiresAt) && key != keep {
			r.evict(key, e, evictExpired)
			continue
		}
		live++
		if key != keep {
			candidates = append(candidates, keyAccess{key: key, accessedAt: e.accessedAt})
		}
	}

	if r.maxEntries <= 0 || live <= r.maxEntries {
		return
	}

	// Oldest first; ties go by key so the order does not depend on map iteration
	slices.SortFunc(candidates, func(a, b keyAccess) int {
		if c := a.accessedAt.Compare(b.accessedAt); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})
	excess := min(live-r.maxEntries, len(candidates))
	for _, ka := range candidates[:excess] {
		r.evict(ka.key, r.entries[ka.key], evictCapacity)
	}
}

// cleanupLoop runs periodic cleanup
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mutex.Lock()
			r.cleanup("")
			r.mutex.Unlock()
		case <-r.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and drops every evaluator. Registered
// zones are kept.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.stopCleanup) })

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, e := range r.entries {
		if e.evaluator != nil {
			e.evaluator = nil
			r.metrics.active.Dec()
		}
	}
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stats := Stats{Zones: len(r.entries)}
	now := r.now()
	for _, e := range r.entries {
		if e.evaluator == nil {
			continue
		}
		stats.Evaluators++
		if now.After(e.expiresAt) {
			stats.ExpiredEvaluators++
		}
	}
	return stats
}

// Stats provides information about registry usage
type Stats struct {
	Zones             int
	Evaluators        int
	ExpiredEvaluators int
}
