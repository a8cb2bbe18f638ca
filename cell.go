package atomq

import "sync"

// Unsubscribe removes a subscription when called. Calling it more than once
// is a no-op.
type Unsubscribe func()

// Getter is the read accessor handed to options sources and client sources.
// Reads performed through it register the cell as a dependency of the
// binding, so the source is re-evaluated when the cell changes.
//
// atomq deliberately does not ship a dependency-tracked computation graph;
// Cell and Getter are the integration surface for whichever state layer the
// host application uses.
type Getter interface {
	track(s depSource)
}

// depSource is a change source a binding can watch. Cell implements it.
type depSource interface {
	watch(fn func()) Unsubscribe
}

// Read reads a cell through a Getter, registering it as a dependency.
// A nil Getter performs an untracked read.
func Read[T any](g Getter, c *Cell[T]) T {
	if g != nil {
		g.track(c)
	}
	return c.Get()
}

// Cell is a writable reactive value with ordered subscriber fan-out.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	subs   []cellSub[T]
	nextID int
}

type cellSub[T any] struct {
	id int
	fn func(T)
}

// NewCell creates a cell holding the given initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores a new value and notifies subscribers in subscription order.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	subs := make([]cellSub[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers a function called on every Set. The returned
// Unsubscribe removes the registration.
func (c *Cell[T]) Subscribe(fn func(T)) Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, cellSub[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// watch implements depSource.
func (c *Cell[T]) watch(fn func()) Unsubscribe {
	return c.Subscribe(func(T) { fn() })
}

// tracker collects the dependencies read during one evaluation of an
// options or client source.
type tracker struct {
	sources []depSource
}

func (t *tracker) track(s depSource) {
	for _, have := range t.sources {
		if have == s {
			return
		}
	}
	t.sources = append(t.sources, s)
}
