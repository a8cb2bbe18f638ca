package atomq

import (
	"context"
	"time"
)

// Status is the result status of a query observer.
type Status string

const (
	// StatusPending indicates no data has been obtained yet.
	StatusPending Status = "pending"
	// StatusError indicates the last fetch attempt failed and no usable
	// data is available.
	StatusError Status = "error"
	// StatusSuccess indicates data is available.
	StatusSuccess Status = "success"
)

// FetchStatus describes in-flight network activity, orthogonal to Status.
type FetchStatus string

const (
	// FetchIdle indicates no fetch is in flight.
	FetchIdle FetchStatus = "idle"
	// FetchFetching indicates a fetch is in flight.
	FetchFetching FetchStatus = "fetching"
	// FetchPaused indicates a fetch wants to run but the engine paused it.
	FetchPaused FetchStatus = "paused"
)

// MutationStatus is the lifecycle status of a mutation observer.
type MutationStatus string

const (
	// MutationIdle indicates the mutation has not been triggered.
	MutationIdle MutationStatus = "idle"
	// MutationPending indicates the mutation function is running.
	MutationPending MutationStatus = "pending"
	// MutationError indicates the last mutation attempt failed.
	MutationError MutationStatus = "error"
	// MutationSuccess indicates the last mutation attempt succeeded.
	MutationSuccess MutationStatus = "success"
)

// QueryFunc fetches data for a query key. The engine owns retries,
// deduplication and caching of its results.
type QueryFunc func(ctx context.Context, queryKey []any) (any, error)

// InfiniteQueryFunc fetches one page for a query key and page param.
type InfiniteQueryFunc func(ctx context.Context, queryKey []any, pageParam any) (any, error)

// MutationFunc performs a mutation with the given variables.
type MutationFunc func(ctx context.Context, variables any) (any, error)

// PageParamFunc derives the next (or previous) page param from the pages
// fetched so far. Returning ok=false means no further page exists.
type PageParamFunc func(lastPage any, allPages []any, lastPageParam any) (param any, ok bool)

// QueryOptions configures a query observer. Fields beyond the recognized
// set pass through to the engine unmodified via Extra.
type QueryOptions struct {
	// QueryKey is the cache identity of the query. Changing it causes the
	// binding to replace its observer.
	QueryKey []any

	// QueryFn fetches the data.
	QueryFn QueryFunc

	// Extra carries engine-specific options the adapter does not interpret.
	Extra map[string]any
}

// InfiniteQueryOptions configures an infinite query observer.
type InfiniteQueryOptions struct {
	QueryKey []any
	QueryFn  InfiniteQueryFunc

	// InitialPageParam seeds the first page fetch.
	InitialPageParam any

	// GetNextPageParam derives the param for the next page.
	GetNextPageParam PageParamFunc

	// GetPreviousPageParam derives the param for the previous page.
	// Optional; nil disables backward pagination.
	GetPreviousPageParam PageParamFunc

	Extra map[string]any
}

// MutationOptions configures a mutation observer.
type MutationOptions struct {
	MutationKey []any
	MutationFn  MutationFunc
	Extra       map[string]any
}

// MutationFilters selects which mutations a mutation-state observer
// reports. Zero-valued fields match everything.
type MutationFilters struct {
	MutationKey []any
	Status      MutationStatus
	Extra       map[string]any
}

// QueryState is the raw snapshot a query observer emits. Data is untyped at
// the engine boundary; the generic binding layer converts it.
type QueryState struct {
	Status         Status
	FetchStatus    FetchStatus
	Data           any
	Error          error
	DataUpdatedAt  time.Time
	ErrorUpdatedAt time.Time
	FailureCount   int
}

// InfiniteQueryState is the raw snapshot an infinite query observer emits.
type InfiniteQueryState struct {
	Status      Status
	FetchStatus FetchStatus

	// Pages holds fetched pages in order; PageParams the param used for each.
	Pages      []any
	PageParams []any

	Error           error
	DataUpdatedAt   time.Time
	HasNextPage     bool
	HasPreviousPage bool

	IsFetchingNextPage     bool
	IsFetchingPreviousPage bool
}

// MutationState is the raw snapshot a mutation observer emits.
type MutationState struct {
	Status      MutationStatus
	Data        any
	Error       error
	Variables   any
	MutationKey []any
	SubmittedAt time.Time
}

// QueryObserver is the engine-side observer for a single query. The adapter
// owns only its lifecycle and subscription; retry timers, cache reads and
// request deduplication live behind it.
type QueryObserver interface {
	// Subscribe registers a callback invoked with every new snapshot and
	// returns an Unsubscribe that stops delivery. Implementations must not
	// invoke fn synchronously from within Subscribe; the adapter reads
	// CurrentState after subscribing.
	Subscribe(fn func(QueryState)) Unsubscribe

	// CurrentState returns the observer's current snapshot.
	CurrentState() QueryState

	// SetOptions reconfigures the observer in place. Only called for
	// changes that preserve cache identity.
	SetOptions(opts QueryOptions)

	// Refetch forces a fetch regardless of staleness.
	Refetch(ctx context.Context) error

	// Destroy releases the observer's internal resources.
	Destroy()
}

// InfiniteQueryObserver is the engine-side observer for a paginated query.
// The Subscribe contract matches QueryObserver's.
type InfiniteQueryObserver interface {
	Subscribe(fn func(InfiniteQueryState)) Unsubscribe
	CurrentState() InfiniteQueryState
	SetOptions(opts InfiniteQueryOptions)
	Refetch(ctx context.Context) error
	FetchNextPage(ctx context.Context) error
	FetchPreviousPage(ctx context.Context) error
	Destroy()
}

// MutationObserver is the engine-side observer for a single mutation.
// The Subscribe contract matches QueryObserver's.
type MutationObserver interface {
	Subscribe(fn func(MutationState)) Unsubscribe
	CurrentState() MutationState
	SetOptions(opts MutationOptions)

	// Mutate runs the mutation and returns its result. Retry policy is the
	// engine's.
	Mutate(ctx context.Context, variables any) (any, error)

	// Reset returns the observer to the idle state.
	Reset()

	Destroy()
}

// MutationStateObserver reports the states of mutations in the client's
// cache matching a filter. The Subscribe contract matches QueryObserver's.
type MutationStateObserver interface {
	Subscribe(fn func([]MutationState)) Unsubscribe
	CurrentState() []MutationState
	SetOptions(filters MutationFilters)
	Destroy()
}
