package atomq

import "github.com/zoobzio/capitan"

// Field keys for binding and hydration events.
var (
	// KeyKind is the binding kind: query, infinite-query, mutation or
	// mutation-state.
	KeyKind = capitan.NewStringKey("kind")

	// KeyIdentity is the cache identity hash of the observer.
	KeyIdentity = capitan.NewStringKey("identity")

	// KeyOldState is the previous lifecycle state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new lifecycle state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyStage is the stage at which a snapshot was dropped or hydration
	// failed.
	KeyStage = capitan.NewStringKey("stage")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeySubscribers is the number of subscribers a snapshot was
	// delivered to.
	KeySubscribers = capitan.NewIntKey("subscribers")

	// KeyQueries is the number of queries in a dehydrated state.
	KeyQueries = capitan.NewIntKey("queries")

	// KeyDebounce is the configured hydration debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyPath is the filesystem path a snapshot was written to.
	KeyPath = capitan.NewStringKey("path")
)
