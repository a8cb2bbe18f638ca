package atomq

import "github.com/zoobzio/capitan"

// Binding lifecycle signals.
var (
	// BindingStateChanged is emitted when a binding transitions between
	// lifecycle states.
	BindingStateChanged = capitan.NewSignal(
		"atomq.binding.state.changed",
		"Binding state transition",
	)

	// BindingUpdated is emitted when an options change was applied to the
	// live observer in place, without replacing it.
	BindingUpdated = capitan.NewSignal(
		"atomq.binding.updated",
		"Observer options updated in place",
	)

	// BindingDisposed is emitted when a binding is terminally disposed.
	BindingDisposed = capitan.NewSignal(
		"atomq.binding.disposed",
		"Binding disposed",
	)
)

// Observer lifecycle signals.
var (
	// ObserverCreated is emitted when a binding constructs and subscribes
	// an engine observer.
	ObserverCreated = capitan.NewSignal(
		"atomq.observer.created",
		"Engine observer constructed",
	)

	// ObserverDestroyed is emitted when a binding unsubscribes and
	// destroys its engine observer.
	ObserverDestroyed = capitan.NewSignal(
		"atomq.observer.destroyed",
		"Engine observer destroyed",
	)
)

// Snapshot delivery signals.
var (
	// SnapshotReceived is emitted when an observer notification reaches
	// the binding.
	SnapshotReceived = capitan.NewSignal(
		"atomq.snapshot.received",
		"Snapshot received from observer",
	)

	// SnapshotApplied is emitted when a snapshot was stored and fanned out
	// to subscribers.
	SnapshotApplied = capitan.NewSignal(
		"atomq.snapshot.applied",
		"Snapshot applied and delivered",
	)

	// SnapshotDropped is emitted when a snapshot was discarded, either
	// because it came from a torn-down observer generation or because a
	// middleware stage failed.
	SnapshotDropped = capitan.NewSignal(
		"atomq.snapshot.dropped",
		"Snapshot discarded",
	)
)

// Hydration signals.
var (
	// HydrationReceived is emitted when raw state is received from the
	// hydration source.
	HydrationReceived = capitan.NewSignal(
		"atomq.hydration.received",
		"Raw state received from hydration source",
	)

	// HydrationApplied is emitted when dehydrated state was merged into
	// the client.
	HydrationApplied = capitan.NewSignal(
		"atomq.hydration.applied",
		"Dehydrated state applied to client",
	)

	// HydrationFailed is emitted when decoding or applying dehydrated
	// state failed.
	HydrationFailed = capitan.NewSignal(
		"atomq.hydration.failed",
		"Hydration failed",
	)
)

// Persistence signals.
var (
	// DehydrationWritten is emitted when a dehydrated snapshot was encoded
	// and written to its destination.
	DehydrationWritten = capitan.NewSignal(
		"atomq.dehydration.written",
		"Dehydrated state written",
	)

	// DehydrationFailed is emitted when dehydrating, encoding, or writing
	// a snapshot failed.
	DehydrationFailed = capitan.NewSignal(
		"atomq.dehydration.failed",
		"Dehydration failed",
	)
)
