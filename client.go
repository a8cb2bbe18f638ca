package atomq

import (
	"context"
	"sync"
)

// Client is the shared handle to the engine instance owning the cache.
// All bindings pointed at the same Client share its cache and network
// engine; the engine must tolerate concurrent observer registration.
type Client interface {
	// NewQueryObserver constructs a query observer for the given options.
	NewQueryObserver(opts QueryOptions) QueryObserver

	// NewInfiniteQueryObserver constructs an infinite query observer.
	NewInfiniteQueryObserver(opts InfiniteQueryOptions) InfiniteQueryObserver

	// NewMutationObserver constructs a mutation observer.
	NewMutationObserver(opts MutationOptions) MutationObserver

	// NewMutationStateObserver constructs an observer over the states of
	// cached mutations matching the filters.
	NewMutationStateObserver(filters MutationFilters) MutationStateObserver

	// InvalidateQueries marks cached queries matching the key prefix as
	// stale, triggering refetches for active observers.
	InvalidateQueries(ctx context.Context, queryKey []any) error

	// Hydrate merges dehydrated cache state into the client's cache.
	Hydrate(state DehydratedState) error

	// Dehydrate returns a serializable snapshot of the client's cache.
	Dehydrate() (DehydratedState, error)
}

// ClientSource resolves the client a binding uses. It runs with the same
// Getter as the options source, so the resolved client may itself come from
// a cell. A change in the resolved client replaces the binding's observer.
type ClientSource func(g Getter) Client

var (
	defaultClientMu sync.RWMutex
	defaultClient   Client
)

// SetDefaultClient installs the process-wide client used by bindings
// without an explicit ClientSource. Call it before the first read of any
// such binding.
func SetDefaultClient(c Client) {
	defaultClientMu.Lock()
	defaultClient = c
	defaultClientMu.Unlock()
}

// DefaultClient returns the process-wide client, or nil if none is set.
func DefaultClient() Client {
	defaultClientMu.RLock()
	defer defaultClientMu.RUnlock()
	return defaultClient
}

// ResetDefaultClient clears the process-wide client. Intended for teardown
// in tests and for hosts that swap engines between runs.
func ResetDefaultClient() {
	defaultClientMu.Lock()
	defaultClient = nil
	defaultClientMu.Unlock()
}

// resolveClient applies the binding's ClientSource, falling back to the
// process default. Panics if no client is available: bindings cannot
// operate without an engine, and this is a wiring error, not a runtime
// condition.
func resolveClient(src ClientSource, g Getter) Client {
	var c Client
	if src != nil {
		c = src(g)
	} else {
		c = DefaultClient()
	}
	if c == nil {
		panic("atomq: no client available; call SetDefaultClient or provide a ClientSource")
	}
	return c
}
