package trainledger

import (
	"log/slog"

	"github.com/randalmurphal/trainledger/pkg/trainledger/allocator"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
)

type openConfig struct {
	logger         *slog.Logger
	metricsEnabled bool
	tracingEnabled bool
	stores         map[family.Family]allocator.CounterStore
}

// Option configures Open.
type Option func(*openConfig)

// WithLogger sets the logger shared by every component.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *openConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics on the global meter provider.
// Default: disabled.
//
// Example:
//
//	ledger, err := trainledger.Open(settings, trainledger.WithMetrics(true))
func WithMetrics(enabled bool) Option {
	return func(c *openConfig) {
		c.metricsEnabled = enabled
	}
}

// WithTracing enables OpenTelemetry spans on the global tracer provider.
// Default: disabled.
func WithTracing(enabled bool) Option {
	return func(c *openConfig) {
		c.tracingEnabled = enabled
	}
}

// WithCounterStore overrides the counter store of a family numbered by
// allocator.StrategyCounter. The ledger does not close stores supplied
// this way.
func WithCounterStore(f family.Family, store allocator.CounterStore) Option {
	return func(c *openConfig) {
		if c.stores == nil {
			c.stores = make(map[family.Family]allocator.CounterStore)
		}
		c.stores[f] = store
	}
}
