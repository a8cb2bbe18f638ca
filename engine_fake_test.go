package atomq

import (
	"context"
	"sync"
	"time"
)

// fakeClient is a scripted engine used across the binding tests. Observers
// it constructs are driven manually with emit/resolve/fail so tests stay
// deterministic.
type fakeClient struct {
	mu             sync.Mutex
	queryObservers []*fakeQueryObserver
	infObservers   []*fakeInfiniteObserver
	mutObservers   []*fakeMutationObserver
	msObservers    []*fakeMutationStateObserver
	invalidated    [][]any
	hydrated       []DehydratedState
	hydrateErr     error
	dehydrated     DehydratedState
	dehydrateErr   error
	dehydrateCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{}
}

func (c *fakeClient) NewQueryObserver(opts QueryOptions) QueryObserver {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := &fakeQueryObserver{
		opts:  opts,
		state: QueryState{Status: StatusPending, FetchStatus: FetchFetching},
	}
	c.queryObservers = append(c.queryObservers, o)
	return o
}

func (c *fakeClient) NewInfiniteQueryObserver(opts InfiniteQueryOptions) InfiniteQueryObserver {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := &fakeInfiniteObserver{
		opts:  opts,
		state: InfiniteQueryState{Status: StatusPending, FetchStatus: FetchFetching},
	}
	c.infObservers = append(c.infObservers, o)
	return o
}

func (c *fakeClient) NewMutationObserver(opts MutationOptions) MutationObserver {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := &fakeMutationObserver{
		opts:  opts,
		state: MutationState{Status: MutationIdle},
	}
	c.mutObservers = append(c.mutObservers, o)
	return o
}

func (c *fakeClient) NewMutationStateObserver(filters MutationFilters) MutationStateObserver {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := &fakeMutationStateObserver{filters: filters}
	c.msObservers = append(c.msObservers, o)
	return o
}

func (c *fakeClient) InvalidateQueries(_ context.Context, queryKey []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, queryKey)
	return nil
}

func (c *fakeClient) Hydrate(state DehydratedState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hydrateErr != nil {
		return c.hydrateErr
	}
	c.hydrated = append(c.hydrated, state)
	return nil
}

func (c *fakeClient) Dehydrate() (DehydratedState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dehydrateCalls++
	if c.dehydrateErr != nil {
		return DehydratedState{}, c.dehydrateErr
	}
	return c.dehydrated, nil
}

// liveQueryObservers counts constructed-but-not-destroyed query observers.
func (c *fakeClient) liveQueryObservers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, o := range c.queryObservers {
		if !o.isDestroyed() {
			n++
		}
	}
	return n
}

// clientSource wires a fakeClient into a binding without touching the
// process-wide default.
func clientSource(c Client) ClientSource {
	return func(Getter) Client { return c }
}

type fakeQueryObserver struct {
	mu             sync.Mutex
	opts           QueryOptions
	state          QueryState
	subs           []func(QueryState)
	subscribeCalls int
	unsubCalls     int
	destroyCalls   int
	refetchCalls   int
	setOptions     []QueryOptions
	destroyed      bool
}

func (o *fakeQueryObserver) Subscribe(fn func(QueryState)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribeCalls++
	o.subs = append(o.subs, fn)
	i := len(o.subs) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.unsubCalls++
		o.subs[i] = nil
	}
}

func (o *fakeQueryObserver) CurrentState() QueryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *fakeQueryObserver) SetOptions(opts QueryOptions) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
	o.setOptions = append(o.setOptions, opts)
}

func (o *fakeQueryObserver) Refetch(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refetchCalls++
	return nil
}

func (o *fakeQueryObserver) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyCalls++
	o.destroyed = true
}

func (o *fakeQueryObserver) isDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

// emit stores a new state and notifies live subscriptions in order.
func (o *fakeQueryObserver) emit(s QueryState) {
	o.mu.Lock()
	o.state = s
	subs := make([]func(QueryState), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}

func (o *fakeQueryObserver) resolve(data any) {
	o.emit(QueryState{
		Status:        StatusSuccess,
		FetchStatus:   FetchIdle,
		Data:          data,
		DataUpdatedAt: time.Unix(1700000000, 0),
	})
}

func (o *fakeQueryObserver) fail(err error) {
	o.emit(QueryState{
		Status:         StatusError,
		FetchStatus:    FetchIdle,
		Error:          err,
		ErrorUpdatedAt: time.Unix(1700000000, 0),
		FailureCount:   1,
	})
}

type fakeInfiniteObserver struct {
	mu            sync.Mutex
	opts          InfiniteQueryOptions
	state         InfiniteQueryState
	subs          []func(InfiniteQueryState)
	unsubCalls    int
	destroyCalls  int
	nextCalls     int
	previousCalls int
	refetchCalls  int
	destroyed     bool
}

func (o *fakeInfiniteObserver) Subscribe(fn func(InfiniteQueryState)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
	i := len(o.subs) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.unsubCalls++
		o.subs[i] = nil
	}
}

func (o *fakeInfiniteObserver) CurrentState() InfiniteQueryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *fakeInfiniteObserver) SetOptions(opts InfiniteQueryOptions) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
}

func (o *fakeInfiniteObserver) Refetch(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refetchCalls++
	return nil
}

func (o *fakeInfiniteObserver) FetchNextPage(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextCalls++
	return nil
}

func (o *fakeInfiniteObserver) FetchPreviousPage(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.previousCalls++
	return nil
}

func (o *fakeInfiniteObserver) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyCalls++
	o.destroyed = true
}

func (o *fakeInfiniteObserver) isDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

func (o *fakeInfiniteObserver) emit(s InfiniteQueryState) {
	o.mu.Lock()
	o.state = s
	subs := make([]func(InfiniteQueryState), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}

// fakeMutationObserver runs the configured MutationFn synchronously so
// tests can observe the pending and settled snapshots it emits.
type fakeMutationObserver struct {
	mu           sync.Mutex
	opts         MutationOptions
	state        MutationState
	subs         []func(MutationState)
	unsubCalls   int
	destroyCalls int
	resetCalls   int
	destroyed    bool
}

func (o *fakeMutationObserver) Subscribe(fn func(MutationState)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
	i := len(o.subs) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.unsubCalls++
		o.subs[i] = nil
	}
}

func (o *fakeMutationObserver) CurrentState() MutationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *fakeMutationObserver) SetOptions(opts MutationOptions) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
}

func (o *fakeMutationObserver) Mutate(ctx context.Context, variables any) (any, error) {
	o.mu.Lock()
	fn := o.opts.MutationFn
	key := o.opts.MutationKey
	o.mu.Unlock()

	submitted := time.Unix(1700000000, 0)
	o.emit(MutationState{
		Status:      MutationPending,
		Variables:   variables,
		MutationKey: key,
		SubmittedAt: submitted,
	})

	data, err := fn(ctx, variables)
	if err != nil {
		o.emit(MutationState{
			Status:      MutationError,
			Error:       err,
			Variables:   variables,
			MutationKey: key,
			SubmittedAt: submitted,
		})
		return nil, err
	}

	o.emit(MutationState{
		Status:      MutationSuccess,
		Data:        data,
		Variables:   variables,
		MutationKey: key,
		SubmittedAt: submitted,
	})
	return data, nil
}

func (o *fakeMutationObserver) Reset() {
	o.mu.Lock()
	o.resetCalls++
	o.mu.Unlock()
	o.emit(MutationState{Status: MutationIdle})
}

func (o *fakeMutationObserver) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyCalls++
	o.destroyed = true
}

func (o *fakeMutationObserver) isDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

func (o *fakeMutationObserver) emit(s MutationState) {
	o.mu.Lock()
	o.state = s
	subs := make([]func(MutationState), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}

type fakeMutationStateObserver struct {
	mu           sync.Mutex
	filters      MutationFilters
	state        []MutationState
	subs         []func([]MutationState)
	unsubCalls   int
	destroyCalls int
	destroyed    bool
}

func (o *fakeMutationStateObserver) Subscribe(fn func([]MutationState)) Unsubscribe {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
	i := len(o.subs) - 1
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.unsubCalls++
		o.subs[i] = nil
	}
}

func (o *fakeMutationStateObserver) CurrentState() []MutationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *fakeMutationStateObserver) SetOptions(filters MutationFilters) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filters = filters
}

func (o *fakeMutationStateObserver) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyCalls++
	o.destroyed = true
}

func (o *fakeMutationStateObserver) isDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

func (o *fakeMutationStateObserver) emit(s []MutationState) {
	o.mu.Lock()
	o.state = s
	subs := make([]func([]MutationState), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}
