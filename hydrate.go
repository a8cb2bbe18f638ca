package atomq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultHydrateDebounce is the default debounce duration for hydration
// updates.
const DefaultHydrateDebounce = 100 * time.Millisecond

// DehydratedQuery is one cached query in serialized form.
type DehydratedQuery struct {
	QueryKey      []any     `json:"queryKey" yaml:"queryKey"`
	Data          any       `json:"data" yaml:"data"`
	DataUpdatedAt time.Time `json:"dataUpdatedAt" yaml:"dataUpdatedAt"`
}

// DehydratedMutation is one cached mutation in serialized form. Paused
// mutations are typically the only ones worth persisting.
type DehydratedMutation struct {
	MutationKey []any     `json:"mutationKey" yaml:"mutationKey"`
	Variables   any       `json:"variables" yaml:"variables"`
	SubmittedAt time.Time `json:"submittedAt" yaml:"submittedAt"`
}

// DehydratedState is a serializable snapshot of a client's cache, suitable
// for persisting and re-injecting via Client.Hydrate.
type DehydratedState struct {
	Queries   []DehydratedQuery    `json:"queries" yaml:"queries"`
	Mutations []DehydratedMutation `json:"mutations,omitempty" yaml:"mutations,omitempty"`
}

// Hydrator watches a Source for dehydrated state, decodes it, and merges
// it into a client's cache. Changes arriving in quick succession are
// debounced into a single hydration.
type Hydrator struct {
	source   Source
	client   Client
	codec    Codec
	debounce time.Duration
	syncMode bool
	clock    clockz.Clock

	applied   atomic.Int64
	lastError atomic.Pointer[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes.
	changes <-chan []byte
}

// NewHydrator creates a Hydrator feeding the client from the source.
// Default codec is JSON; configure instances with the chainable methods
// before calling Start().
func NewHydrator(source Source, client Client) *Hydrator {
	return &Hydrator{
		source:   source,
		client:   client,
		codec:    JSONCodec{},
		debounce: DefaultHydrateDebounce,
		clock:    clockz.RealClock,
	}
}

// Codec sets the codec for deserializing dehydrated state.
// Default: JSONCodec. Must be called before Start().
func (h *Hydrator) Codec(codec Codec) *Hydrator {
	h.codec = codec
	return h
}

// Debounce sets the debounce duration for hydration updates.
// Default: 100ms. Must be called before Start().
func (h *Hydrator) Debounce(d time.Duration) *Hydrator {
	h.debounce = d
	return h
}

// Clock sets a custom clock for debounce timers. Use clockz.NewFakeClock
// for deterministic tests. Must be called before Start().
func (h *Hydrator) Clock(clock clockz.Clock) *Hydrator {
	h.clock = clock
	return h
}

// SyncMode enables synchronous processing for testing. In sync mode only
// the initial value is processed by Start; use Process() to drive
// subsequent values deterministically. Must be called before Start().
func (h *Hydrator) SyncMode() *Hydrator {
	h.syncMode = true
	return h
}

// Applied returns how many hydrations have been merged into the client.
func (h *Hydrator) Applied() int64 {
	return h.applied.Load()
}

// LastError returns the last decode or hydrate error, or nil.
func (h *Hydrator) LastError() error {
	ptr := h.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Start begins watching for dehydrated state. It blocks until the first
// snapshot is processed (success or failure), then continues watching
// asynchronously. Start can only be called once.
func (h *Hydrator) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return fmt.Errorf("hydrator already started")
	}
	h.started = true
	h.mu.Unlock()

	changes, err := h.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start hydration source: %w", err)
	}

	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case raw, ok := <-changes:
		if !ok {
			return fmt.Errorf("hydration source closed before emitting initial state")
		}
		capitan.Emit(ctx, HydrationReceived)
		initialErr = h.process(ctx, raw)
	}

	if h.syncMode {
		h.changes = changes
		return initialErr
	}

	go h.watch(ctx, changes)

	return initialErr
}

// Process reads and processes the next value from the source. Only
// available in sync mode; returns false if no value is pending.
func (h *Hydrator) Process(ctx context.Context) bool {
	if !h.syncMode {
		return false
	}

	select {
	case raw, ok := <-h.changes:
		if !ok {
			return false
		}
		capitan.Emit(ctx, HydrationReceived)
		_ = h.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

// process decodes and applies a single dehydrated state snapshot.
func (h *Hydrator) process(ctx context.Context, raw []byte) error {
	var state DehydratedState
	if err := h.codec.Unmarshal(raw, &state); err != nil {
		h.setError(err)
		capitan.Emit(ctx, HydrationFailed,
			KeyStage.Field("decode"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("decode failed: %w", err)
	}

	if err := h.client.Hydrate(state); err != nil {
		h.setError(err)
		capitan.Emit(ctx, HydrationFailed,
			KeyStage.Field("hydrate"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("hydrate failed: %w", err)
	}

	h.applied.Add(1)
	h.lastError.Store(nil)
	capitan.Emit(ctx, HydrationApplied,
		KeyQueries.Field(len(state.Queries)),
	)

	return nil
}

func (h *Hydrator) setError(err error) {
	e := err
	h.lastError.Store(&e)
}

// watch processes changes from the source with debouncing.
func (h *Hydrator) watch(ctx context.Context, changes <-chan []byte) {
	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				// Source closed; apply any pending state.
				if hasPending {
					_ = h.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			capitan.Emit(ctx, HydrationReceived,
				KeyDebounce.Field(h.debounce),
			)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = h.clock.NewTimer(h.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(h.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = h.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
