package tzcache

import (
	"log/slog"
	"time"

	"github.com/cyp0633/tzeval/evaluation"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for the evaluator registry
type Config struct {
	TTL             time.Duration // How long an idle evaluator keeps its periods
	MaxEntries      int           // Maximum number of live evaluators before eviction
	CleanupInterval time.Duration // How often to run cleanup; zero disables the cleanup goroutine

	// Evaluation configures every evaluator created by the registry
	Evaluation evaluation.Config

	// Registerer receives the registry metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	// Logger receives registry events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig provides sensible defaults for evaluator caching
var DefaultConfig = Config{
	TTL:             15 * time.Minute, // Keep evaluated periods for 15 minutes
	MaxEntries:      1000,             // Keep up to 1000 live evaluators
	CleanupInterval: 5 * time.Minute,  // Cleanup every 5 minutes
	Evaluation:      evaluation.DefaultConfig,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = Config{
	TTL:             5 * time.Minute, // Shorter TTL
	MaxEntries:      100,             // Fewer live evaluators
	CleanupInterval: 2 * time.Minute, // More frequent cleanup
	Evaluation:      evaluation.DefaultConfig,
}
