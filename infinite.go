package atomq

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// InfiniteQueryResult is the typed snapshot an InfiniteQuery binding
// exposes. Pagination cursors are tracked by the engine; the result only
// mirrors them.
type InfiniteQueryResult[T any] struct {
	Status      Status
	FetchStatus FetchStatus

	Pages      []T
	PageParams []any

	Error         error
	DataUpdatedAt time.Time

	HasNextPage     bool
	HasPreviousPage bool

	IsFetchingNextPage     bool
	IsFetchingPreviousPage bool

	fetchNext     func(ctx context.Context) error
	fetchPrevious func(ctx context.Context) error
	refetch       func(ctx context.Context) error
}

// IsPending reports whether no pages have been obtained yet.
func (r InfiniteQueryResult[T]) IsPending() bool { return r.Status == StatusPending }

// IsSuccess reports whether pages are available.
func (r InfiniteQueryResult[T]) IsSuccess() bool { return r.Status == StatusSuccess }

// IsError reports whether the last fetch failed with no usable pages.
func (r InfiniteQueryResult[T]) IsError() bool { return r.Status == StatusError }

// FetchNextPage asks the engine to fetch the next page.
func (r InfiniteQueryResult[T]) FetchNextPage(ctx context.Context) error {
	return r.fetchNext(ctx)
}

// FetchPreviousPage asks the engine to fetch the previous page.
func (r InfiniteQueryResult[T]) FetchPreviousPage(ctx context.Context) error {
	return r.fetchPrevious(ctx)
}

// Refetch refetches all loaded pages.
func (r InfiniteQueryResult[T]) Refetch(ctx context.Context) error { return r.refetch(ctx) }

// InfiniteQuery is a reactive state unit mirroring an infinite query
// observer.
type InfiniteQuery[T any] struct {
	b *binding[InfiniteQueryOptions, InfiniteQueryState, InfiniteQueryObserver]
}

// NewInfiniteQuery creates an infinite query binding. Semantics match
// NewQuery; the options additionally carry the pagination parameters the
// engine uses to derive page cursors.
func NewInfiniteQuery[T any](options func(Getter) InfiniteQueryOptions, opts ...Option[InfiniteQueryState]) *InfiniteQuery[T] {
	return &InfiniteQuery[T]{
		b: newBinding(
			"infinite-query",
			options,
			func(c Client, o InfiniteQueryOptions) InfiniteQueryObserver {
				return c.NewInfiniteQueryObserver(o)
			},
			func(o InfiniteQueryOptions) string { return hashKey(o.QueryKey) },
			opts,
		),
	}
}

// Client overrides the process-wide default client for this binding.
// Must be called before the first read.
func (q *InfiniteQuery[T]) Client(src ClientSource) *InfiniteQuery[T] {
	q.b.clientSrc = src
	return q
}

// Clock sets a custom clock. Must be called before the first read.
func (q *InfiniteQuery[T]) Clock(clock clockz.Clock) *InfiniteQuery[T] {
	q.b.clock = clock
	return q
}

// Metrics sets a metrics provider. Must be called before the first read.
func (q *InfiniteQuery[T]) Metrics(provider MetricsProvider) *InfiniteQuery[T] {
	q.b.metrics = provider
	return q
}

// AwaitTimeout bounds how long Await blocks. Must be called before the
// first read.
func (q *InfiniteQuery[T]) AwaitTimeout(d time.Duration) *InfiniteQuery[T] {
	q.b.awaitTimeout = d
	return q
}

// ErrorHistorySize sets how many delivery errors to retain. Must be called
// before the first read.
func (q *InfiniteQuery[T]) ErrorHistorySize(n int) *InfiniteQuery[T] {
	q.b.errs = newErrorRing(n)
	return q
}

// Get returns the current snapshot, activating the binding on first read.
func (q *InfiniteQuery[T]) Get() InfiniteQueryResult[T] {
	return q.result(q.b.get())
}

// Subscribe registers a snapshot consumer.
func (q *InfiniteQuery[T]) Subscribe(fn func(InfiniteQueryResult[T])) Unsubscribe {
	return q.b.subscribe(func(s InfiniteQueryState) { fn(q.result(s)) })
}

// Await blocks cooperatively until the query settles, returning the loaded
// pages or re-raising the engine's error.
func (q *InfiniteQuery[T]) Await(ctx context.Context) ([]T, error) {
	ctx, cancel := q.b.awaitCtx(ctx)
	defer cancel()

	for {
		s, disposed, changed := q.b.waitState()
		switch {
		case disposed:
			return nil, ErrBindingDisposed
		case s.Status == StatusSuccess:
			return pagesAs[T](s.Pages), nil
		case s.Status == StatusError:
			return nil, s.Error
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// FetchNextPage asks the engine to fetch the next page.
func (q *InfiniteQuery[T]) FetchNextPage(ctx context.Context) error {
	return q.b.ensureObserver().FetchNextPage(ctx)
}

// FetchPreviousPage asks the engine to fetch the previous page.
func (q *InfiniteQuery[T]) FetchPreviousPage(ctx context.Context) error {
	return q.b.ensureObserver().FetchPreviousPage(ctx)
}

// Refetch refetches all loaded pages through the live observer.
func (q *InfiniteQuery[T]) Refetch(ctx context.Context) error {
	return q.b.ensureObserver().Refetch(ctx)
}

// State returns the binding's lifecycle state.
func (q *InfiniteQuery[T]) State() BindingState { return q.b.State() }

// LastError returns the last delivery error, or nil.
func (q *InfiniteQuery[T]) LastError() error { return q.b.LastError() }

// ErrorHistory returns recent delivery errors, oldest first.
func (q *InfiniteQuery[T]) ErrorHistory() []error { return q.b.ErrorHistory() }

// Dispose terminally shuts the binding down.
func (q *InfiniteQuery[T]) Dispose() { q.b.dispose() }

func (q *InfiniteQuery[T]) result(s InfiniteQueryState) InfiniteQueryResult[T] {
	return InfiniteQueryResult[T]{
		Status:                 s.Status,
		FetchStatus:            s.FetchStatus,
		Pages:                  pagesAs[T](s.Pages),
		PageParams:             s.PageParams,
		Error:                  s.Error,
		DataUpdatedAt:          s.DataUpdatedAt,
		HasNextPage:            s.HasNextPage,
		HasPreviousPage:        s.HasPreviousPage,
		IsFetchingNextPage:     s.IsFetchingNextPage,
		IsFetchingPreviousPage: s.IsFetchingPreviousPage,
		fetchNext:              q.FetchNextPage,
		fetchPrevious:          q.FetchPreviousPage,
		refetch:                q.Refetch,
	}
}
