package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/terraskye/turnengine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/terraskye/turnengine/otel")

// Span attribute keys used by the decorators.
var (
	AttrEventType   = attribute.Key("turnengine.event.type")
	AttrEventID     = attribute.Key("turnengine.event.id")
	AttrAggregateID = attribute.Key("turnengine.aggregate.id")
	AttrHandlers    = attribute.Key("turnengine.dispatch.handlers_called")
	AttrFailed      = attribute.Key("turnengine.dispatch.handlers_failed")
)

// TracingMiddleware instruments every dispatch with an OpenTelemetry
// span and records dispatch metrics. Install it first so the span
// covers the whole middleware chain:
//
//	dispatcher.Use(otel.TracingMiddleware())
//
// Metrics are recorded into the instruments initialized by
// turnengine.InitMetrics; without initialization only spans are
// emitted.
func TracingMiddleware(opts ...Option) turnengine.Middleware {
	cfg := newConfig(opts)

	return turnengine.MiddlewareFunc(func(next turnengine.DispatchFunc) turnengine.DispatchFunc {
		return func(ctx context.Context, event turnengine.Event) *turnengine.DispatchReport {
			operation := cfg.Operation
			if operation == "" {
				operation = fmt.Sprintf("events.dispatch %s", event.Type)
			}

			attrs := append([]attribute.KeyValue{
				AttrEventType.String(string(event.Type)),
				AttrEventID.String(event.EventID.String()),
			}, cfg.Attributes...)
			if cfg.GetAttributes != nil {
				attrs = append(attrs, cfg.GetAttributes(ctx)...)
			}

			ctx, span := tracer.Start(ctx, operation,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			start := time.Now()
			report := next(ctx, event)
			elapsed := time.Since(start)

			span.SetAttributes(
				AttrHandlers.Int(report.HandlersCalled),
				AttrFailed.Int(report.HandlersFailed),
			)

			if turnengine.EventsDispatched != nil {
				turnengine.EventsDispatched.Add(ctx, 1,
					metric.WithAttributes(AttrEventType.String(string(event.Type))),
				)
				turnengine.DispatchDuration.Record(ctx, float64(elapsed.Milliseconds()),
					metric.WithAttributes(AttrEventType.String(string(event.Type))),
				)
			}

			if report.HandlersFailed > 0 {
				span.SetStatus(codes.Error, fmt.Sprintf("%d handlers failed", report.HandlersFailed))
				for _, failure := range report.Failures {
					span.RecordError(failure.Err,
						trace.WithAttributes(attribute.String("turnengine.handler", failure.Handler)),
					)
				}
				if turnengine.HandlersFailed != nil {
					turnengine.HandlersFailed.Add(ctx, int64(report.HandlersFailed),
						metric.WithAttributes(AttrEventType.String(string(event.Type))),
					)
				}
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return report
		}
	})
}
