package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// config holds the options for tracing decorators.
type config struct {
	// Operation identifies the current operation and serves as a span name.
	Operation string

	// Attributes holds the default attributes for each span created by
	// a decorator.
	Attributes []attribute.KeyValue

	// GetAttributes is an optional function that can extract trace
	// attributes from the context and add them to the span.
	GetAttributes func(ctx context.Context) []attribute.KeyValue
}

// Option configures a tracing decorator.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithOperation sets an operation name used as the span name.
func WithOperation(operation string) Option {
	return optionFunc(func(o *config) {
		o.Operation = operation
	})
}

// WithAttributes sets the default attributes for the spans created by
// a decorator.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.Attributes = attrs
	})
}

// WithAttributeGetter extracts additional attributes from the context.
func WithAttributeGetter(fn func(ctx context.Context) []attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.GetAttributes = fn
	})
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
