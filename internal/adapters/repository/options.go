package repository

import (
	"time"

	"github.com/okian/collegeapi/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background gauge updates.
// Zero or negative disables the updater.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		s.metricsUpdateInterval = interval
	}
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTable overrides the table name, saved_colleges by default.
func WithTable(name string) PostgresOption {
	return func(s *PostgresStore) {
		if name != "" {
			s.table = name
		}
	}
}

// WithLogger sets the logger used by the Postgres store.
func WithLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.log = l
		}
	}
}
