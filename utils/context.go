package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a single MongoDB operation.
	DefaultTimeout = 10 * time.Second

	// ProbeTimeout bounds one readiness probe against a dependency.
	ProbeTimeout = 5 * time.Second
)

// WithTimeout derives a context with DefaultTimeout. A shorter deadline already
// on parent wins.
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithProbeTimeout derives a context with ProbeTimeout.
func WithProbeTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ProbeTimeout)
}
