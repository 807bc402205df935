package otel

import (
	"context"

	"github.com/terraskye/turnengine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ turnengine.Store = (*TracedStore)(nil)

// TracedStore wraps a Store with OpenTelemetry tracing. Every save and
// load gets its own span carrying the aggregate id; failures set the
// span status and feed the persistence failure counter.
type TracedStore struct {
	next turnengine.Store
	cfg  *config
}

// WithStoreTelemetry wraps next with tracing.
func WithStoreTelemetry(next turnengine.Store, opts ...Option) *TracedStore {
	return &TracedStore{next: next, cfg: newConfig(opts)}
}

func (s *TracedStore) Save(ctx context.Context, aggregateID string, state []byte) error {
	ctx, span := s.startSpan(ctx, "store.save", aggregateID)
	defer span.End()

	err := s.next.Save(ctx, aggregateID, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if turnengine.SavesFailed != nil {
			turnengine.SavesFailed.Add(ctx, 1,
				metric.WithAttributes(AttrAggregateID.String(aggregateID)),
			)
		}
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *TracedStore) Load(ctx context.Context, aggregateID string) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "store.load", aggregateID)
	defer span.End()

	state, err := s.next.Load(ctx, aggregateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return state, nil
}

func (s *TracedStore) Close() error {
	return s.next.Close()
}

func (s *TracedStore) startSpan(ctx context.Context, operation, aggregateID string) (context.Context, trace.Span) {
	if s.cfg.Operation != "" {
		operation = s.cfg.Operation
	}
	attrs := append([]attribute.KeyValue{AttrAggregateID.String(aggregateID)}, s.cfg.Attributes...)
	if s.cfg.GetAttributes != nil {
		attrs = append(attrs, s.cfg.GetAttributes(ctx)...)
	}
	return tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}
