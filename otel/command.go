package otel

import (
	"context"
	"time"

	"github.com/terraskye/turnengine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// AttrCommand is the span attribute carrying the command description.
var AttrCommand = attribute.Key("turnengine.command")

var _ turnengine.Command = (*TracedCommand)(nil)

// TracedCommand wraps a command with OpenTelemetry tracing and metrics
// around Execute and Undo.
type TracedCommand struct {
	turnengine.Command
	cfg *config
}

// WithCommandTelemetry decorates next with spans around Execute and
// Undo. Metrics are recorded into the instruments initialized by
// turnengine.InitMetrics; without initialization only spans are
// emitted:
//   - CommandsExecuted / CommandsFailed: executions by outcome.
//   - CommandsDuration: execution duration in milliseconds.
//   - UndoOperations / RedoOperations: timeline traversals.
func WithCommandTelemetry(next turnengine.Command, opts ...Option) *TracedCommand {
	return &TracedCommand{Command: next, cfg: newConfig(opts)}
}

// Execute runs the wrapped command inside a span. Re-execution of a
// previously undone command is counted as a redo.
func (c *TracedCommand) Execute(ctx context.Context) turnengine.Result {
	redo := c.Command.Status() == turnengine.StatusUndone

	ctx, span := c.startSpan(ctx, "command.execute "+c.Describe())
	defer span.End()

	start := time.Now()
	result := c.Command.Execute(ctx)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(AttrCommand.String(c.Describe()))
	if turnengine.CommandsExecuted != nil {
		turnengine.CommandsExecuted.Add(ctx, 1, attrs)
		turnengine.CommandsDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
		if redo && turnengine.RedoOperations != nil {
			turnengine.RedoOperations.Add(ctx, 1, attrs)
		}
	}

	if !result.Success {
		span.SetStatus(codes.Error, result.Message)
		if result.Err != nil {
			span.RecordError(result.Err)
		}
		if turnengine.CommandsFailed != nil {
			turnengine.CommandsFailed.Add(ctx, 1, attrs)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result
}

// Undo reverses the wrapped command inside a span.
func (c *TracedCommand) Undo(ctx context.Context) turnengine.Result {
	ctx, span := c.startSpan(ctx, "command.undo "+c.Describe())
	defer span.End()

	result := c.Command.Undo(ctx)

	if turnengine.UndoOperations != nil {
		turnengine.UndoOperations.Add(ctx, 1, metric.WithAttributes(AttrCommand.String(c.Describe())))
	}
	if !result.Success {
		span.SetStatus(codes.Error, result.Message)
		if result.Err != nil {
			span.RecordError(result.Err)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result
}

func (c *TracedCommand) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if c.cfg.Operation != "" {
		operation = c.cfg.Operation
	}
	attrs := append([]attribute.KeyValue{AttrCommand.String(c.Describe())}, c.cfg.Attributes...)
	if c.cfg.GetAttributes != nil {
		attrs = append(attrs, c.cfg.GetAttributes(ctx)...)
	}
	return tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
