package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool // include full SQL statements in spans, dev only
	SlowQueryThresh  time.Duration
	WithoutVariables bool // exclude query variables from SQL statements
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DefaultDBTracingConfigWithThreshold(200 * time.Millisecond)
}

// DefaultDBTracingConfigWithThreshold returns defaults with a custom slow query threshold.
func DefaultDBTracingConfigWithThreshold(slowThresh time.Duration) DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  slowThresh,
		WithoutVariables: true,
	}
}

// RegisterDBTracing registers the otelgorm plugin with the given GORM DB
// instance so every query becomes a span under the calling request.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName("farmstock"),
	}
	if cfg.WithoutVariables && !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}
