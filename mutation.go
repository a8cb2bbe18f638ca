package atomq

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// MutationResult is the typed snapshot a Mutation binding exposes.
// A is the variables type, T the mutation's result type.
type MutationResult[A, T any] struct {
	Status      MutationStatus
	Data        T
	Error       error
	Variables   A
	SubmittedAt time.Time

	mutate func(ctx context.Context, variables A) (T, error)
	reset  func()
}

// IsIdle reports whether the mutation has not been triggered.
func (r MutationResult[A, T]) IsIdle() bool { return r.Status == MutationIdle }

// IsPending reports whether the mutation function is running.
func (r MutationResult[A, T]) IsPending() bool { return r.Status == MutationPending }

// IsSuccess reports whether the last attempt succeeded.
func (r MutationResult[A, T]) IsSuccess() bool { return r.Status == MutationSuccess }

// IsError reports whether the last attempt failed.
func (r MutationResult[A, T]) IsError() bool { return r.Status == MutationError }

// Mutate runs the mutation through the live observer and returns its
// result. Retry policy is the engine's.
func (r MutationResult[A, T]) Mutate(ctx context.Context, variables A) (T, error) {
	return r.mutate(ctx, variables)
}

// Reset returns the observer to the idle state.
func (r MutationResult[A, T]) Reset() { r.reset() }

// Mutation is a reactive state unit mirroring a mutation observer.
type Mutation[A, T any] struct {
	b *binding[MutationOptions, MutationState, MutationObserver]
}

// NewMutation creates a mutation binding. A mutation key change in the
// options source replaces the observer; other option changes are applied
// in place.
func NewMutation[A, T any](options func(Getter) MutationOptions, opts ...Option[MutationState]) *Mutation[A, T] {
	return &Mutation[A, T]{
		b: newBinding(
			"mutation",
			options,
			func(c Client, o MutationOptions) MutationObserver { return c.NewMutationObserver(o) },
			func(o MutationOptions) string { return hashKey(o.MutationKey) },
			opts,
		),
	}
}

// Client overrides the process-wide default client for this binding.
// Must be called before the first read.
func (m *Mutation[A, T]) Client(src ClientSource) *Mutation[A, T] {
	m.b.clientSrc = src
	return m
}

// Clock sets a custom clock. Must be called before the first read.
func (m *Mutation[A, T]) Clock(clock clockz.Clock) *Mutation[A, T] {
	m.b.clock = clock
	return m
}

// Metrics sets a metrics provider. Must be called before the first read.
func (m *Mutation[A, T]) Metrics(provider MetricsProvider) *Mutation[A, T] {
	m.b.metrics = provider
	return m
}

// ErrorHistorySize sets how many delivery errors to retain. Must be called
// before the first read.
func (m *Mutation[A, T]) ErrorHistorySize(n int) *Mutation[A, T] {
	m.b.errs = newErrorRing(n)
	return m
}

// Get returns the current snapshot, activating the binding on first read.
func (m *Mutation[A, T]) Get() MutationResult[A, T] {
	return m.result(m.b.get())
}

// Subscribe registers a snapshot consumer.
func (m *Mutation[A, T]) Subscribe(fn func(MutationResult[A, T])) Unsubscribe {
	return m.b.subscribe(func(s MutationState) { fn(m.result(s)) })
}

// Mutate runs the mutation through the live observer. The returned error
// is the engine's, unmodified; it also surfaces on the next snapshot.
func (m *Mutation[A, T]) Mutate(ctx context.Context, variables A) (T, error) {
	data, err := m.b.ensureObserver().Mutate(ctx, variables)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](data), nil
}

// Reset returns the observer to the idle state.
func (m *Mutation[A, T]) Reset() {
	m.b.ensureObserver().Reset()
}

// State returns the binding's lifecycle state.
func (m *Mutation[A, T]) State() BindingState { return m.b.State() }

// LastError returns the last delivery error, or nil.
func (m *Mutation[A, T]) LastError() error { return m.b.LastError() }

// ErrorHistory returns recent delivery errors, oldest first.
func (m *Mutation[A, T]) ErrorHistory() []error { return m.b.ErrorHistory() }

// Dispose terminally shuts the binding down.
func (m *Mutation[A, T]) Dispose() { m.b.dispose() }

func (m *Mutation[A, T]) result(s MutationState) MutationResult[A, T] {
	return MutationResult[A, T]{
		Status:      s.Status,
		Data:        as[T](s.Data),
		Error:       s.Error,
		Variables:   as[A](s.Variables),
		SubmittedAt: s.SubmittedAt,
		mutate:      m.Mutate,
		reset:       m.Reset,
	}
}
