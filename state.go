package atomq

// BindingState represents the lifecycle state of a binding.
type BindingState int32

const (
	// StateUnbound indicates the binding has no live observer. This is the
	// initial state, and the state a binding returns to when its last
	// subscriber leaves.
	StateUnbound BindingState = iota

	// StateActive indicates the binding holds a live, subscribed observer
	// and mirrors its snapshots.
	StateActive

	// StateRebinding indicates the options source produced a new cache
	// identity and the binding is replacing its observer. No snapshots are
	// mirrored until the replacement is subscribed.
	StateRebinding

	// StateDisposed indicates the binding has been disposed. Disposed is
	// terminal; a new binding must be created to observe again.
	StateDisposed
)

// String returns the string representation of the state.
func (s BindingState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateActive:
		return "active"
	case StateRebinding:
		return "rebinding"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
