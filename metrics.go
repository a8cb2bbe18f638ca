package atomq

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus
// or StatsD. Implement this interface to receive callbacks on key binding
// events.
type MetricsProvider interface {
	// OnStateChange is called when a binding transitions between
	// lifecycle states.
	OnStateChange(from, to BindingState)

	// OnSnapshotApplied is called when a snapshot was stored and fanned
	// out. Duration covers middleware plus fan-out.
	OnSnapshotApplied(kind string, duration time.Duration)

	// OnSnapshotDropped is called when a snapshot was discarded. Stage is
	// "stale" for torn-down observer generations or "middleware" for
	// pipeline failures.
	OnSnapshotDropped(kind, stage string)

	// OnObserverCreated is called when a binding constructs an engine
	// observer.
	OnObserverCreated(kind string)

	// OnObserverDestroyed is called when a binding destroys its engine
	// observer.
	OnObserverDestroyed(kind string)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Embed it to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ BindingState)              {}
func (NoOpMetricsProvider) OnSnapshotApplied(_ string, _ time.Duration)  {}
func (NoOpMetricsProvider) OnSnapshotDropped(_, _ string)                {}
func (NoOpMetricsProvider) OnObserverCreated(_ string)                   {}
func (NoOpMetricsProvider) OnObserverDestroyed(_ string)                 {}
