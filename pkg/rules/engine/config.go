package engine

import "fmt"

// Config contains configuration for the rule evaluator.
type Config struct {
	// PageSize is the number of library items fetched per request.
	// Default: 50.
	PageSize int

	// Concurrency bounds how many items of a page resolve their operands at
	// the same time for one rule. Values below 2 evaluate items one by one.
	// Accumulation order does not depend on this setting.
	// Default: 1.
	Concurrency int
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize:    50,
		Concurrency: 1,
	}
}

// Validate validates the evaluator configuration.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative, got %d", ErrInvalidConfig, c.Concurrency)
	}
	return nil
}

// WithPageSize returns a copy of the configuration with the given page size.
func (c *Config) WithPageSize(n int) *Config {
	cp := *c
	cp.PageSize = n
	return &cp
}

// WithConcurrency returns a copy of the configuration with the given
// concurrency.
func (c *Config) WithConcurrency(n int) *Config {
	cp := *c
	cp.Concurrency = n
	return &cp
}
