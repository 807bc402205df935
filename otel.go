package turnengine

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/terraskye/turnengine"

var (
	meter metric.Meter

	// Command metrics
	CommandsExecuted metric.Int64Counter
	CommandsFailed   metric.Int64Counter
	CommandsDuration metric.Float64Histogram

	// Undo/redo metrics
	UndoOperations metric.Int64Counter
	RedoOperations metric.Int64Counter

	// Dispatch metrics
	EventsDispatched metric.Int64Counter
	HandlersFailed   metric.Int64Counter
	DispatchDuration metric.Float64Histogram

	// Persistence metrics
	SavesFailed metric.Int64Counter

	// Initialization
	once    sync.Once
	initErr error
)

// InitMetrics initializes the global metric instruments. Call once at
// application startup; decorators in the otel subpackage record into
// these instruments.
func InitMetrics() error {
	once.Do(func() {
		meter = otel.Meter(instrumentationName)
		initErr = initializeMetrics()
	})
	return initErr
}

func initializeMetrics() error {
	var err error

	CommandsExecuted, err = meter.Int64Counter(
		"turnengine.commands.executed",
		metric.WithDescription("Number of commands executed successfully"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	CommandsFailed, err = meter.Int64Counter(
		"turnengine.commands.failed",
		metric.WithDescription("Number of commands that failed validation or execution"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	CommandsDuration, err = meter.Float64Histogram(
		"turnengine.commands.duration",
		metric.WithDescription("Command execution duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return err
	}

	UndoOperations, err = meter.Int64Counter(
		"turnengine.undo.operations",
		metric.WithDescription("Number of undo operations attempted"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	RedoOperations, err = meter.Int64Counter(
		"turnengine.redo.operations",
		metric.WithDescription("Number of redo operations attempted"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	EventsDispatched, err = meter.Int64Counter(
		"turnengine.events.dispatched",
		metric.WithDescription("Number of events dispatched"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	HandlersFailed, err = meter.Int64Counter(
		"turnengine.handlers.failed",
		metric.WithDescription("Number of handler failures inside dispatch"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return err
	}

	DispatchDuration, err = meter.Float64Histogram(
		"turnengine.dispatch.duration",
		metric.WithDescription("Event dispatch duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return err
	}

	SavesFailed, err = meter.Int64Counter(
		"turnengine.persistence.saves_failed",
		metric.WithDescription("Number of best-effort persistence failures"),
		metric.WithUnit("{save}"),
	)
	return err
}
