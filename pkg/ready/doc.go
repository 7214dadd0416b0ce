// Package ready tracks batches of externally-loaded resources toward two
// milestones: pre-ready (intrinsic or approximate dimensions known) and
// ready (final content loaded or failed).
//
// The Manager accepts a batch of opaque resources, wraps each in a loader
// selected by resource kind, and aggregates per-resource completion into
// batch-level events. A resource that is itself a container of checkable
// children is checked by a nested Manager cloned from the owner, so Manager
// trees mirror resource nesting.
//
// # Basic usage
//
//	m := ready.New()
//	m.Check(resources).
//		OnPreReady(func(e ready.PreReadyEvent) {
//			// every resource has an approximate size
//		}).
//		OnReady(func(e ready.ReadyEvent) {
//			// every resource loaded or failed
//		})
//
// Listeners may be attached immediately after Check returns: no loader
// completes before the next turn of the Manager's dispatch loop, and a batch
// milestone that fires before an OnPreReady or OnReady handler attaches is
// replayed to it, so the milestones cannot be missed.
//
// # Concurrency
//
// All Manager state transitions run on a single ordered dispatch loop shared
// by the whole Manager tree. Loaders may complete on arbitrary goroutines;
// their signals are serialized through the loop before any bookkeeping runs.
// Event handlers for one Manager never run concurrently.
package ready
