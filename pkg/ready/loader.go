package ready

import "sync"

// Resource is an opaque loadable unit checked for readiness. The core never
// fetches or decodes a resource itself; it only dispatches on the kind
// discriminator and observes the loader chosen for it.
type Resource interface {
	// Kind returns the resource-kind discriminator used for loader dispatch,
	// e.g. "img" or "video".
	Kind() string
}

// Container is implemented by resources that own nested checkable resources.
// Resources of a kind without a registered loader that implement Container
// are checked through a nested Manager.
type Container interface {
	Resource

	// Children returns every nested checkable resource in insertion order.
	Children() []Resource

	// ContentChildren returns the subset of Children that still need the
	// pre-ready virtualization phase, i.e. children without an explicit
	// declared size.
	ContentChildren() []Resource

	// Sized reports whether the container itself declares an explicit or
	// approximate size up front.
	Sized() bool
}

// Lazy is optionally implemented by resources marked as deferred-loading.
type Lazy interface {
	Lazy() bool
}

// IsLazy reports whether the resource declares itself deferred-loading.
func IsLazy(res Resource) bool {
	l, ok := res.(Lazy)
	return ok && l.Lazy()
}

// LoaderError is the payload of a loader-level EventError.
type LoaderError struct {
	// Target is the failing resource or a sub-target within it.
	Target any
}

// LoaderPreReady is the payload of a loader-level EventPreReady.
type LoaderPreReady struct {
	HasLoading bool
}

// LoaderReady is the payload of a loader-level EventReady.
type LoaderReady struct {
	// WithPreReady signals that pre-ready is logically simultaneous with
	// this ready; the owning Manager counts both milestones.
	WithPreReady bool
	HasLoading   bool
}

// ChildrenRequest is the payload of EventRequestChildren and
// EventRequestReadyChildren.
type ChildrenRequest struct {
	Children []Resource
}

// Loader observes one resource's native load lifecycle and exposes it as
// the uniform event contract. A loader's Check is called exactly once; its
// Destroy must be safe to call even if the load never completed.
type Loader interface {
	// Check begins observing the wrapped resource. It must not complete the
	// resource synchronously; signals are delivered through the owning
	// Manager's loop, at least one turn after Check was called.
	Check()

	// Destroy stops observing and releases the loader's subscriptions.
	Destroy()

	// Events returns the loader's event channel. The owning Manager is its
	// only consumer.
	Events() *Emitter
}

// ContainerLoader is the extended surface of container-kind loaders. The
// owning Manager forwards a nested Manager's results back through these
// methods, which makes the container behave as a single opaque loader from
// the owner's point of view.
type ContainerLoader interface {
	Loader

	OnError(target any)
	OnPreReady(hasLoading bool)
	OnReady(hasLoading bool)
}

// LoaderConfig carries the immutable Manager configuration a loader may
// need at construction time.
type LoaderConfig struct {
	// Prefix is the marker prefix collaborators use to recognize
	// kind-specific metadata attributes, "data-" by default.
	Prefix string
}

// LoaderFactory constructs a loader for one resource. Registered per kind
// on the Manager.
type LoaderFactory func(res Resource, cfg LoaderConfig) Loader

// LoaderBase carries the event channel and once-guarded milestone emission
// shared by loader implementations. Embed it and call OnError, OnPreReady
// and OnReady from the load observation code; repeated milestone calls are
// ignored, repeated errors are not.
type LoaderBase struct {
	mu         sync.Mutex
	events     Emitter
	hasLoading bool
	preReady   bool
	ready      bool
}

// Events returns the loader's event channel.
func (b *LoaderBase) Events() *Emitter {
	return &b.events
}

// SetHasLoading marks the resource (or a descendant) as deferred-loading.
// Must be called before the milestone that reports it.
func (b *LoaderBase) SetHasLoading(v bool) {
	b.mu.Lock()
	b.hasLoading = v
	b.mu.Unlock()
}

// OnError emits a load failure. May be called more than once.
func (b *LoaderBase) OnError(target any) {
	b.events.Emit(EventError, LoaderError{Target: target})
}

// OnPreReady emits the pre-ready milestone. At most one emission.
func (b *LoaderBase) OnPreReady() {
	b.mu.Lock()
	if b.preReady || b.ready {
		b.mu.Unlock()
		return
	}
	b.preReady = true
	hasLoading := b.hasLoading
	b.mu.Unlock()

	b.events.Emit(EventPreReady, LoaderPreReady{HasLoading: hasLoading})
}

// OnReady emits the ready milestone, exactly once. When pre-ready was never
// emitted separately the ready carries WithPreReady so the Manager counts
// both milestones in the same tick.
func (b *LoaderBase) OnReady() {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return
	}
	b.ready = true
	withPreReady := !b.preReady
	b.preReady = true
	hasLoading := b.hasLoading
	b.mu.Unlock()

	b.events.Emit(EventReady, LoaderReady{WithPreReady: withPreReady, HasLoading: hasLoading})
}

// release drops every subscription on the loader's channel.
func (b *LoaderBase) release() {
	b.events.RemoveAll()
}

// instantLoader settles a resource with no checkable sub-steps. The
// milestone still reaches the Manager asynchronously because loader events
// are serialized through the loop.
type instantLoader struct {
	LoaderBase
	res Resource
}

func newInstantLoader(res Resource) *instantLoader {
	l := &instantLoader{res: res}
	l.SetHasLoading(IsLazy(res))
	return l
}

func (l *instantLoader) Check() {
	l.OnReady()
}

func (l *instantLoader) Destroy() {
	l.release()
}
