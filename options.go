package atomq

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Update carries a snapshot through the delivery middleware pipeline.
// Middleware sees the previously applied snapshot alongside the incoming
// one, so stages can diff, log or enrich before the value is stored.
type Update[S any] struct {
	// Previous is the last snapshot applied to the binding. On the first
	// delivery it is the observer's construction-time snapshot.
	Previous S

	// Current is the incoming snapshot. Stages may replace it; the value
	// left here is what subscribers receive.
	Current S
}

// Option configures the snapshot delivery pipeline of a binding. Middleware
// runs between the observer notification and the stored snapshot; a failing
// stage drops that update (recorded via LastError) without touching the
// previously applied snapshot. Action calls and fetch errors are never
// routed through this pipeline — those stay between the caller and the
// engine.
type Option[S any] func(pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]]

// passthroughID names the terminal stage of every delivery pipeline.
var passthroughID = pipz.Name("deliver")

// passthrough is the terminal pipeline stage; it hands the update through
// unchanged so options can wrap it.
func passthrough[S any]() pipz.Chainable[*Update[S]] {
	return pipz.Transform(passthroughID, func(_ context.Context, u *Update[S]) *Update[S] {
		return u
	})
}

// buildPipeline wraps the terminal with delivery options.
func buildPipeline[S any](terminal pipz.Chainable[*Update[S]], opts []Option[S]) pipz.Chainable[*Update[S]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithMiddleware prepends processors to the delivery pipeline. Processors
// run in order with the terminal delivery stage last.
//
// Example:
//
//	atomq.NewQuery[User](optionsFn,
//	    atomq.WithMiddleware(
//	        atomq.UseEffect[atomq.QueryState]("log", logSnapshot),
//	    ),
//	)
func WithMiddleware[S any](processors ...pipz.Chainable[*Update[S]]) Option[S] {
	return func(p pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
		all := make([]pipz.Chainable[*Update[S]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// WithDeliveryTimeout bounds middleware execution. Mostly useful when a
// stage performs I/O, such as forwarding snapshots to an external sink.
func WithDeliveryTimeout[S any](d time.Duration) Option[S] {
	return func(p pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
		return pipz.NewTimeout("delivery-timeout", p, d)
	}
}

// WithRetry retries the delivery pipeline on failure, up to the given
// number of attempts. Retries are immediate; use WithBackoff for delays.
// Only worthwhile when a stage performs fallible I/O.
func WithRetry[S any](attempts int) Option[S] {
	return func(p pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
		return pipz.NewRetry("retry", p, attempts)
	}
}

// WithBackoff retries the delivery pipeline with exponential backoff
// starting at baseDelay.
func WithBackoff[S any](attempts int, baseDelay time.Duration) Option[S] {
	return func(p pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
		return pipz.NewBackoff("backoff", p, attempts, baseDelay)
	}
}

// WithErrorHandler adds error observation to the delivery pipeline. Errors
// still drop the update; the handler is for logging or alerting.
func WithErrorHandler[S any](handler pipz.Chainable[*pipz.Error[*Update[S]]]) Option[S] {
	return func(p pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// UseTransform creates a stage that rewrites the update and cannot fail.
func UseTransform[S any](name string, fn func(context.Context, *Update[S]) *Update[S]) pipz.Chainable[*Update[S]] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a stage that rewrites the update and may fail, dropping
// the delivery.
func UseApply[S any](name string, fn func(context.Context, *Update[S]) (*Update[S], error)) pipz.Chainable[*Update[S]] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a side-effect stage; the update passes through
// unchanged. Use for logging, metrics or notifications.
func UseEffect[S any](name string, fn func(context.Context, *Update[S]) error) pipz.Chainable[*Update[S]] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseFilter runs stage only for updates matching the predicate; others pass
// through untouched. Useful for stages that should only see certain
// transitions, such as logging errors.
//
// Example:
//
//	atomq.UseFilter("log-errors",
//	    func(_ context.Context, u *atomq.Update[atomq.QueryState]) bool {
//	        return u.Current.Error != nil
//	    },
//	    atomq.UseEffect[atomq.QueryState]("log", logError),
//	)
func UseFilter[S any](name string, predicate func(context.Context, *Update[S]) bool, stage pipz.Chainable[*Update[S]]) pipz.Chainable[*Update[S]] {
	return pipz.NewFilter(pipz.Name(name), predicate, stage)
}
