package service

import (
	"log/slog"

	"arefa/internal/export/batch"
	regmetrics "arefa/internal/registry/metrics"
)

// serviceConfig holds optional dependencies shared by the services.
type serviceConfig struct {
	logger    *slog.Logger
	metrics   *regmetrics.Metrics
	batchSize int
}

// Option configures a service.
type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithBatchSize sets the number of records per export lot.
func WithBatchSize(n int) Option {
	return func(c *serviceConfig) {
		c.batchSize = n
	}
}

func newConfig(opts []Option) serviceConfig {
	c := serviceConfig{batchSize: batch.DefaultSize}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.batchSize <= 0 {
		c.batchSize = batch.DefaultSize
	}
	return c
}
