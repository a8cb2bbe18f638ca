// Package atomq binds observers from an async query/mutation engine to
// reactive state units.
//
// The engine — whatever implements caching, deduplication, retry, stale
// tracking and pagination — is external and consumed through the Client and
// observer interfaces. atomq owns only the adapter layer: it constructs an
// observer from a reactive options source, mirrors every result the observer
// emits into a readable snapshot, and keeps observer lifecycle in lockstep
// with its consumers.
//
// # Bindings
//
// One factory exists per observer kind:
//
//	users := atomq.NewQuery[[]User](func(g atomq.Getter) atomq.QueryOptions {
//	    page := atomq.Read(g, pageCell)
//	    return atomq.QueryOptions{
//	        QueryKey: []any{"users", page},
//	        QueryFn: func(ctx context.Context, key []any) (any, error) {
//	            return fetchUsers(ctx, key[1].(int))
//	        },
//	    }
//	})
//
//	unsub := users.Subscribe(func(r atomq.QueryResult[[]User]) {
//	    render(r)
//	})
//
// The options source runs against a Getter. Every cell read through
// atomq.Read becomes a dependency: when it changes, the options source is
// re-evaluated. If the cache identity (query key, client) changed, the old
// observer is destroyed and a fresh one constructed before any further
// snapshot is mirrored; otherwise the existing observer is updated in place.
//
// # Lifecycle
//
// A binding moves through Unbound → Active → (Rebinding → Active)* →
// Disposed. At most one live observer exists per binding. When the last
// subscriber leaves, the observer is unsubscribed and destroyed so the
// engine can release its timers; the next read re-activates the binding.
// Dispose is terminal.
//
// # Snapshots
//
// Snapshots carry the engine's status flags, data, error and timestamps,
// plus pass-through action methods (Refetch, FetchNextPage, Mutate). Actions
// forward directly to the live observer — all retry, backoff and error
// policy belongs to the engine. Snapshot updates reach subscribers strictly
// in emission order.
//
// # Suspense
//
// Await blocks the calling goroutine cooperatively until the snapshot
// settles, returning the data or re-raising the engine's error:
//
//	user, err := users.Await(ctx)
//
// # Client
//
// The engine is reached through a Client. A process-wide default is set
// explicitly with SetDefaultClient; individual bindings override it with a
// ClientSource, which may itself read cells:
//
//	atomq.SetDefaultClient(engineClient)
//
//	q := atomq.NewQuery[Profile](optionsFn).Client(func(g atomq.Getter) atomq.Client {
//	    return atomq.Read(g, clientCell)
//	})
//
// # Hydration
//
// A Hydrator feeds dehydrated cache state into a client from an external
// Source, such as a snapshot file watched with fsnotify:
//
//	h := atomq.NewHydrator(atomq.NewFileSource("cache.json"), client)
//	if err := h.Start(ctx); err != nil {
//	    log.Printf("initial hydration failed: %v", err)
//	}
//
// A Persister writes the client's cache back out through the same codec,
// closing the loop across restarts:
//
//	p := atomq.NewPersister(client, "cache.json")
//	if err := p.Persist(ctx); err != nil {
//	    log.Printf("persist failed: %v", err)
//	}
package atomq
