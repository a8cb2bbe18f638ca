package atomq

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// QueryResult is the typed snapshot a Query binding exposes. Action methods
// forward to the live observer; all retry and error policy is the engine's.
type QueryResult[T any] struct {
	Status         Status
	FetchStatus    FetchStatus
	Data           T
	Error          error
	DataUpdatedAt  time.Time
	ErrorUpdatedAt time.Time
	FailureCount   int

	refetch func(ctx context.Context) error
}

// IsPending reports whether no data has been obtained yet.
func (r QueryResult[T]) IsPending() bool { return r.Status == StatusPending }

// IsSuccess reports whether data is available.
func (r QueryResult[T]) IsSuccess() bool { return r.Status == StatusSuccess }

// IsError reports whether the last fetch failed with no usable data.
func (r QueryResult[T]) IsError() bool { return r.Status == StatusError }

// IsFetching reports whether a fetch is in flight.
func (r QueryResult[T]) IsFetching() bool { return r.FetchStatus == FetchFetching }

// Refetch forces a fetch regardless of staleness.
func (r QueryResult[T]) Refetch(ctx context.Context) error { return r.refetch(ctx) }

// Query is a reactive state unit mirroring a query observer.
type Query[T any] struct {
	b *binding[QueryOptions, QueryState, QueryObserver]
}

// NewQuery creates a query binding. The options source runs against a
// Getter; cells read through it become dependencies whose changes
// re-evaluate the options. A query key change replaces the observer.
//
// The binding is lazy: no observer exists until the first Get, Subscribe or
// Await.
func NewQuery[T any](options func(Getter) QueryOptions, opts ...Option[QueryState]) *Query[T] {
	return &Query[T]{
		b: newBinding(
			"query",
			options,
			func(c Client, o QueryOptions) QueryObserver { return c.NewQueryObserver(o) },
			func(o QueryOptions) string { return hashKey(o.QueryKey) },
			opts,
		),
	}
}

// Client overrides the process-wide default client for this binding.
// Must be called before the first read.
func (q *Query[T]) Client(src ClientSource) *Query[T] {
	q.b.clientSrc = src
	return q
}

// Clock sets a custom clock, used for await timeouts and metrics
// durations. Use clockz.NewFakeClock in tests. Must be called before the
// first read.
func (q *Query[T]) Clock(clock clockz.Clock) *Query[T] {
	q.b.clock = clock
	return q
}

// Metrics sets a metrics provider. Must be called before the first read.
func (q *Query[T]) Metrics(provider MetricsProvider) *Query[T] {
	q.b.metrics = provider
	return q
}

// AwaitTimeout bounds how long Await blocks before failing with a deadline
// error. Default: no timeout. Must be called before the first read.
func (q *Query[T]) AwaitTimeout(d time.Duration) *Query[T] {
	q.b.awaitTimeout = d
	return q
}

// ErrorHistorySize sets how many delivery errors to retain for
// ErrorHistory. Default 0 retains only LastError. Must be called before
// the first read.
func (q *Query[T]) ErrorHistorySize(n int) *Query[T] {
	q.b.errs = newErrorRing(n)
	return q
}

// Get returns the current snapshot, activating the binding on first read.
func (q *Query[T]) Get() QueryResult[T] {
	return q.result(q.b.get())
}

// Subscribe registers a snapshot consumer. When the last consumer
// unsubscribes, the observer is destroyed and the binding returns to
// Unbound until the next read.
func (q *Query[T]) Subscribe(fn func(QueryResult[T])) Unsubscribe {
	return q.b.subscribe(func(s QueryState) { fn(q.result(s)) })
}

// Await blocks cooperatively until the query settles: it returns the data
// on success and re-raises the engine's error on failure. Cancellation
// follows ctx and the configured AwaitTimeout.
func (q *Query[T]) Await(ctx context.Context) (T, error) {
	ctx, cancel := q.b.awaitCtx(ctx)
	defer cancel()

	for {
		s, disposed, changed := q.b.waitState()
		switch {
		case disposed:
			var zero T
			return zero, ErrBindingDisposed
		case s.Status == StatusSuccess:
			return as[T](s.Data), nil
		case s.Status == StatusError:
			var zero T
			return zero, s.Error
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-changed:
		}
	}
}

// Refetch forces a fetch through the live observer.
func (q *Query[T]) Refetch(ctx context.Context) error {
	return q.b.ensureObserver().Refetch(ctx)
}

// State returns the binding's lifecycle state.
func (q *Query[T]) State() BindingState { return q.b.State() }

// LastError returns the last delivery error, or nil.
func (q *Query[T]) LastError() error { return q.b.LastError() }

// ErrorHistory returns recent delivery errors, oldest first.
func (q *Query[T]) ErrorHistory() []error { return q.b.ErrorHistory() }

// Dispose terminally shuts the binding down. Reuse requires a new binding.
func (q *Query[T]) Dispose() { q.b.dispose() }

func (q *Query[T]) result(s QueryState) QueryResult[T] {
	return QueryResult[T]{
		Status:         s.Status,
		FetchStatus:    s.FetchStatus,
		Data:           as[T](s.Data),
		Error:          s.Error,
		DataUpdatedAt:  s.DataUpdatedAt,
		ErrorUpdatedAt: s.ErrorUpdatedAt,
		FailureCount:   s.FailureCount,
		refetch:        q.Refetch,
	}
}
