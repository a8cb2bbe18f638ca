package atomq

import (
	"github.com/zoobzio/clockz"
)

// MutationStateView is a read-only reactive state unit mirroring the states
// of cached mutations matching a filter. It exposes no actions; mutations
// are triggered through their own bindings or the client.
type MutationStateView struct {
	b *binding[MutationFilters, []MutationState, MutationStateObserver]
}

// NewMutationState creates a mutation-state binding. A filter change in the
// source replaces the observer.
func NewMutationState(filters func(Getter) MutationFilters, opts ...Option[[]MutationState]) *MutationStateView {
	return &MutationStateView{
		b: newBinding(
			"mutation-state",
			filters,
			func(c Client, f MutationFilters) MutationStateObserver {
				return c.NewMutationStateObserver(f)
			},
			filtersIdentity,
			opts,
		),
	}
}

func filtersIdentity(f MutationFilters) string {
	return hashKey([]any{f.MutationKey, string(f.Status)})
}

// Client overrides the process-wide default client for this binding.
// Must be called before the first read.
func (v *MutationStateView) Client(src ClientSource) *MutationStateView {
	v.b.clientSrc = src
	return v
}

// Clock sets a custom clock. Must be called before the first read.
func (v *MutationStateView) Clock(clock clockz.Clock) *MutationStateView {
	v.b.clock = clock
	return v
}

// Metrics sets a metrics provider. Must be called before the first read.
func (v *MutationStateView) Metrics(provider MetricsProvider) *MutationStateView {
	v.b.metrics = provider
	return v
}

// Get returns the current matching mutation states, activating the binding
// on first read.
func (v *MutationStateView) Get() []MutationState {
	return v.b.get()
}

// Subscribe registers a consumer notified whenever the matching set or any
// of its states change.
func (v *MutationStateView) Subscribe(fn func([]MutationState)) Unsubscribe {
	return v.b.subscribe(fn)
}

// State returns the binding's lifecycle state.
func (v *MutationStateView) State() BindingState { return v.b.State() }

// LastError returns the last delivery error, or nil.
func (v *MutationStateView) LastError() error { return v.b.LastError() }

// Dispose terminally shuts the binding down.
func (v *MutationStateView) Dispose() { v.b.dispose() }
