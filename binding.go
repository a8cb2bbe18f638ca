package atomq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// ErrBindingDisposed is returned by Await when the binding is disposed
// before the snapshot settles.
var ErrBindingDisposed = errors.New("atomq: binding disposed")

// engineObserver is the lifecycle subset every observer kind shares. The
// binding core manages create/subscribe/reconfigure/destroy through it;
// kind-specific actions go through the concrete observer type.
type engineObserver[O, S any] interface {
	Subscribe(fn func(S)) Unsubscribe
	CurrentState() S
	SetOptions(opts O)
	Destroy()
}

// binding is the generic observer-to-state-unit adapter. It guarantees at
// most one live observer at any instant, mirrors snapshots in emission
// order, and replaces the observer when the options source changes cache
// identity.
type binding[O, S any, Ob engineObserver[O, S]] struct {
	kind      string
	optionsFn func(Getter) O
	construct func(Client, O) Ob
	identity  func(O) string
	pipeline  pipz.Chainable[*Update[S]]

	clientSrc    ClientSource
	clock        clockz.Clock
	metrics      MetricsProvider
	awaitTimeout time.Duration

	state     atomic.Int32
	lastError atomic.Pointer[error]
	errs      *errorRing

	// mu guards lifecycle and snapshot structure. deliverMu serializes
	// snapshot staging (pipeline plus store) so updates enter the delivery
	// queue strictly in emission order; it is always acquired before mu and
	// never held during subscriber fan-out, so callbacks may write cells
	// the options source depends on.
	mu        sync.Mutex
	deliverMu sync.Mutex

	disposed  bool
	live      bool
	observer  Ob
	obsUnsub  Unsubscribe
	client    Client
	idHash    string
	gen       int
	snapshot  S
	changed   chan struct{}
	subs      []bindingSub[S]
	nextSubID int
	depUnsubs []Unsubscribe

	// Staged deliveries awaiting fan-out. delivering marks that some frame
	// further up the stack (or another goroutine) is draining the queue.
	queue      []stagedDelivery[S]
	delivering bool
}

type bindingSub[S any] struct {
	id int
	fn func(S)
}

type stagedDelivery[S any] struct {
	subs     []bindingSub[S]
	snapshot S
	started  time.Time
}

func newBinding[O, S any, Ob engineObserver[O, S]](
	kind string,
	optionsFn func(Getter) O,
	construct func(Client, O) Ob,
	identity func(O) string,
	opts []Option[S],
) *binding[O, S, Ob] {
	b := &binding[O, S, Ob]{
		kind:      kind,
		optionsFn: optionsFn,
		construct: construct,
		identity:  identity,
		pipeline:  buildPipeline(passthrough[S](), opts),
		clock:     clockz.RealClock,
		errs:      newErrorRing(0),
		changed:   make(chan struct{}),
	}
	b.state.Store(int32(StateUnbound))
	return b
}

// State returns the binding's lifecycle state.
func (b *binding[O, S, Ob]) State() BindingState {
	return BindingState(b.state.Load())
}

// LastError returns the last middleware delivery error, or nil.
func (b *binding[O, S, Ob]) LastError() error {
	ptr := b.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent delivery errors, oldest first, or nil when
// history is not enabled.
func (b *binding[O, S, Ob]) ErrorHistory() []error {
	return b.errs.all()
}

// get returns the current snapshot, activating the binding on first read.
func (b *binding[O, S, Ob]) get() S {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureActiveLocked(context.Background())
	return b.snapshot
}

// subscribe registers a snapshot consumer, activating the binding if
// needed. When the last consumer unsubscribes, the observer is destroyed
// and the binding returns to Unbound.
func (b *binding[O, S, Ob]) subscribe(fn func(S)) Unsubscribe {
	ctx := context.Background()

	b.mu.Lock()
	b.ensureActiveLocked(ctx)
	id := b.nextSubID
	b.nextSubID++
	b.subs = append(b.subs, bindingSub[S]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.removeSub(ctx, id) })
	}
}

// ensureObserver returns the live observer for action forwarding,
// activating the binding first if needed.
func (b *binding[O, S, Ob]) ensureObserver() Ob {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureActiveLocked(context.Background())
	return b.observer
}

// waitState returns the current snapshot along with a channel closed on the
// next update. Used by the suspense variants. On a disposed binding the
// returned channel is already closed and disposed is true.
func (b *binding[O, S, Ob]) waitState() (S, bool, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return b.snapshot, true, b.changed
	}
	b.ensureActiveLocked(context.Background())
	return b.snapshot, false, b.changed
}

// dispose terminally shuts the binding down, destroying any live observer
// and waking pending Await calls.
func (b *binding[O, S, Ob]) dispose() {
	ctx := context.Background()

	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.teardownLocked(ctx)
	b.disposed = true
	b.subs = nil
	b.setStateLocked(ctx, StateDisposed)
	close(b.changed)
	b.mu.Unlock()

	capitan.Emit(ctx, BindingDisposed,
		KeyKind.Field(b.kind),
	)
}

// ensureActiveLocked resolves the client, evaluates the options source,
// constructs and subscribes the observer, and stores its current snapshot.
// Requires mu held. Panics if the binding is disposed.
func (b *binding[O, S, Ob]) ensureActiveLocked(ctx context.Context) {
	if b.disposed {
		panic("atomq: use of disposed binding")
	}
	if b.live {
		return
	}

	tr := &tracker{}
	client := resolveClient(b.clientSrc, tr)
	opts := b.optionsFn(tr)

	b.client = client
	b.idHash = b.identity(opts)
	b.gen++
	gen := b.gen

	b.observer = b.construct(client, opts)
	b.live = true
	b.obsUnsub = b.observer.Subscribe(func(s S) { b.apply(gen, s) })
	b.snapshot = b.observer.CurrentState()

	for _, src := range tr.sources {
		b.depUnsubs = append(b.depUnsubs, src.watch(b.onDepChange))
	}

	b.setStateLocked(ctx, StateActive)
	capitan.Emit(ctx, ObserverCreated,
		KeyKind.Field(b.kind),
		KeyIdentity.Field(b.idHash),
	)
	if b.metrics != nil {
		b.metrics.OnObserverCreated(b.kind)
	}
}

// onDepChange re-evaluates the options source after a tracked dependency
// changed. Identity-preserving changes update the observer in place; an
// identity change replaces it.
func (b *binding[O, S, Ob]) onDepChange() {
	ctx := context.Background()

	b.deliverMu.Lock()
	b.mu.Lock()
	if b.disposed || !b.live {
		b.mu.Unlock()
		b.deliverMu.Unlock()
		return
	}

	tr := &tracker{}
	client := resolveClient(b.clientSrc, tr)
	opts := b.optionsFn(tr)
	newHash := b.identity(opts)

	// Re-wire dependency watchers; the set of cells read can differ
	// between evaluations.
	oldDeps := b.depUnsubs
	b.depUnsubs = nil
	for _, src := range tr.sources {
		b.depUnsubs = append(b.depUnsubs, src.watch(b.onDepChange))
	}

	if newHash == b.idHash && client == b.client {
		obs := b.observer
		b.mu.Unlock()
		b.deliverMu.Unlock()
		unsubAll(oldDeps)

		obs.SetOptions(opts)
		capitan.Emit(ctx, BindingUpdated,
			KeyKind.Field(b.kind),
			KeyIdentity.Field(newHash),
		)
		return
	}

	// Cache identity changed: tear down the old observer and construct the
	// replacement before any further snapshot is mirrored.
	b.setStateLocked(ctx, StateRebinding)
	oldHash := b.idHash
	oldObs, oldUnsub := b.observer, b.obsUnsub
	b.gen++
	gen := b.gen

	oldUnsub()
	oldObs.Destroy()

	b.client = client
	b.idHash = newHash
	b.observer = b.construct(client, opts)
	b.obsUnsub = b.observer.Subscribe(func(s S) { b.apply(gen, s) })
	cur := b.observer.CurrentState()
	b.setStateLocked(ctx, StateActive)
	b.mu.Unlock()

	// The fresh observer's current snapshot becomes the binding value. It is
	// staged while deliverMu is still held so an emission racing the new
	// subscription queues behind it instead of being overwritten by it.
	drain := b.applyLocked(ctx, gen, cur)
	b.deliverMu.Unlock()
	unsubAll(oldDeps)

	capitan.Emit(ctx, ObserverDestroyed,
		KeyKind.Field(b.kind),
		KeyIdentity.Field(oldHash),
	)
	capitan.Emit(ctx, ObserverCreated,
		KeyKind.Field(b.kind),
		KeyIdentity.Field(newHash),
	)
	if b.metrics != nil {
		b.metrics.OnObserverDestroyed(b.kind)
		b.metrics.OnObserverCreated(b.kind)
	}

	if drain {
		b.drainDeliveries(ctx)
	}
}

// removeSub drops one subscriber. The last departure destroys the observer
// with exactly one unsubscribe call and returns the binding to Unbound.
func (b *binding[O, S, Ob]) removeSub(ctx context.Context, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	if len(b.subs) == 0 && b.live && !b.disposed {
		b.teardownLocked(ctx)
	}
}

// teardownLocked destroys the live observer and stops dependency watchers.
// Requires mu held.
func (b *binding[O, S, Ob]) teardownLocked(ctx context.Context) {
	if !b.live {
		return
	}

	b.gen++
	unsub, obs := b.obsUnsub, b.observer
	b.obsUnsub = nil
	var zero Ob
	b.observer = zero
	b.live = false

	unsubAll(b.depUnsubs)
	b.depUnsubs = nil

	unsub()
	obs.Destroy()

	b.setStateLocked(ctx, StateUnbound)
	capitan.Emit(ctx, ObserverDestroyed,
		KeyKind.Field(b.kind),
		KeyIdentity.Field(b.idHash),
	)
	if b.metrics != nil {
		b.metrics.OnObserverDestroyed(b.kind)
	}
}

// apply mirrors one observer snapshot: middleware pipeline, store, ordered
// fan-out. Notifications from a torn-down observer generation are dropped
// so results never mix across identities.
func (b *binding[O, S, Ob]) apply(gen int, s S) {
	ctx := context.Background()

	b.deliverMu.Lock()
	drain := b.applyLocked(ctx, gen, s)
	b.deliverMu.Unlock()

	if drain {
		b.drainDeliveries(ctx)
	}
}

// applyLocked runs the middleware pipeline, stores the snapshot, and stages
// it for fan-out. Requires deliverMu held and mu not held. Returns whether
// the caller owns the drain; a snapshot staged from inside a subscriber
// callback is delivered by the drain already running further up the stack.
func (b *binding[O, S, Ob]) applyLocked(ctx context.Context, gen int, s S) bool {
	b.mu.Lock()
	if b.disposed || !b.live || gen != b.gen {
		b.mu.Unlock()
		capitan.Emit(ctx, SnapshotDropped,
			KeyKind.Field(b.kind),
			KeyStage.Field("stale"),
		)
		if b.metrics != nil {
			b.metrics.OnSnapshotDropped(b.kind, "stale")
		}
		return false
	}
	prev := b.snapshot
	b.mu.Unlock()

	start := b.clock.Now()
	capitan.Emit(ctx, SnapshotReceived,
		KeyKind.Field(b.kind),
	)

	upd, err := b.pipeline.Process(ctx, &Update[S]{Previous: prev, Current: s})
	if err != nil {
		b.setError(err)
		capitan.Emit(ctx, SnapshotDropped,
			KeyKind.Field(b.kind),
			KeyStage.Field("middleware"),
			KeyError.Field(err.Error()),
		)
		if b.metrics != nil {
			b.metrics.OnSnapshotDropped(b.kind, "middleware")
		}
		return false
	}
	cur := upd.Current

	b.mu.Lock()
	if b.disposed || gen != b.gen {
		b.mu.Unlock()
		return false
	}
	b.snapshot = cur
	close(b.changed)
	b.changed = make(chan struct{})
	subs := make([]bindingSub[S], len(b.subs))
	copy(subs, b.subs)
	b.queue = append(b.queue, stagedDelivery[S]{subs: subs, snapshot: cur, started: start})
	owns := !b.delivering
	b.delivering = true
	b.mu.Unlock()
	return owns
}

// drainDeliveries fans staged snapshots out to subscribers in staging order.
// No lock is held across callbacks, so a subscriber may write a cell the
// options source depends on; the snapshot that results is queued behind the
// one in flight rather than deadlocking on re-entry.
func (b *binding[O, S, Ob]) drainDeliveries(ctx context.Context) {
	for {
		b.mu.Lock()
		if b.disposed || len(b.queue) == 0 {
			b.queue = nil
			b.delivering = false
			b.mu.Unlock()
			return
		}
		d := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		for _, sub := range d.subs {
			sub.fn(d.snapshot)
		}

		capitan.Emit(ctx, SnapshotApplied,
			KeyKind.Field(b.kind),
			KeySubscribers.Field(len(d.subs)),
		)
		if b.metrics != nil {
			b.metrics.OnSnapshotApplied(b.kind, b.clock.Since(d.started))
		}
	}
}

// setStateLocked transitions the lifecycle state and emits the change.
// Requires mu held.
func (b *binding[O, S, Ob]) setStateLocked(ctx context.Context, next BindingState) {
	old := BindingState(b.state.Load())
	if old == next {
		return
	}
	b.state.Store(int32(next))
	capitan.Emit(ctx, BindingStateChanged,
		KeyKind.Field(b.kind),
		KeyOldState.Field(old.String()),
		KeyNewState.Field(next.String()),
	)
	if b.metrics != nil {
		b.metrics.OnStateChange(old, next)
	}
}

func (b *binding[O, S, Ob]) setError(err error) {
	e := err
	b.lastError.Store(&e)
	b.errs.push(err)
}

// awaitCtx derives the context used by Await, applying the configured
// timeout through the binding clock.
func (b *binding[O, S, Ob]) awaitCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.awaitTimeout <= 0 {
		return ctx, func() {}
	}
	return b.clock.WithTimeout(ctx, b.awaitTimeout)
}

func unsubAll(unsubs []Unsubscribe) {
	for _, u := range unsubs {
		u()
	}
}
