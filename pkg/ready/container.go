package ready

import "sync"

// containerLoader checks a Container resource by delegating to nested
// Managers owned by the containerWiring below. The loader itself only
// decides when each delegation phase starts:
//
//   - pre-ready phase: if the container declares its own size (or has no
//     unsized children) pre-ready is known immediately; otherwise the loader
//     emits EventRequestChildren for the unsized content children and waits
//     for the nested Manager's pre-ready, forwarded back through OnPreReady.
//   - ready phase: entered as soon as pre-ready resolves, by emitting
//     EventRequestReadyChildren for the children the virtualization batch
//     does not already cover. The virtualization batch keeps running to its
//     own ready, so no child is ever checked twice.
//
// A container with no children at all settles instantly.
type containerLoader struct {
	LoaderBase
	res Container

	// virtualized records that a content-children batch is in flight, which
	// shrinks the ready-phase request to the explicitly sized children.
	virtualized bool
}

func newContainerLoader(res Container) *containerLoader {
	l := &containerLoader{res: res}

	hasLoading := IsLazy(res)
	for _, child := range res.Children() {
		if IsLazy(child) {
			hasLoading = true
		}
	}
	l.SetHasLoading(hasLoading)
	return l
}

func (l *containerLoader) Check() {
	children := l.res.Children()
	if len(children) == 0 {
		// Zero sub-steps: ready with simultaneous pre-ready.
		l.OnReady(false)
		return
	}

	content := l.res.ContentChildren()
	if l.res.Sized() || len(content) == 0 {
		l.OnPreReady(false)
		return
	}

	l.mu.Lock()
	l.virtualized = true
	l.mu.Unlock()
	l.events.Emit(EventRequestChildren, ChildrenRequest{Children: content})
}

func (l *containerLoader) Destroy() {
	l.events.Emit(EventRequestDestroy, nil)
	l.release()
}

// OnPreReady marks the pre-ready phase resolved and starts the ready phase.
// Called directly from Check when the size is known up front, or by the
// owning Manager when the nested pre-ready fires.
func (l *containerLoader) OnPreReady(hasLoading bool) {
	l.mu.Lock()
	if l.preReady || l.ready {
		l.mu.Unlock()
		return
	}
	l.preReady = true
	l.hasLoading = l.hasLoading || hasLoading
	hl := l.hasLoading
	virtualized := l.virtualized
	l.mu.Unlock()

	l.events.Emit(EventPreReady, LoaderPreReady{HasLoading: hl})

	ready := l.res.Children()
	if virtualized {
		ready = l.sizedChildren()
	}
	l.events.Emit(EventRequestReadyChildren, ChildrenRequest{Children: ready})
}

// OnReady marks the container terminally settled. Called by the owning
// Manager once every nested batch is ready.
func (l *containerLoader) OnReady(hasLoading bool) {
	l.mu.Lock()
	if l.ready {
		l.mu.Unlock()
		return
	}
	l.ready = true
	withPreReady := !l.preReady
	l.preReady = true
	l.hasLoading = l.hasLoading || hasLoading
	hl := l.hasLoading
	l.mu.Unlock()

	l.events.Emit(EventReady, LoaderReady{WithPreReady: withPreReady, HasLoading: hl})
}

// sizedChildren returns Children minus ContentChildren, the subset the
// virtualization batch does not cover.
func (l *containerLoader) sizedChildren() []Resource {
	content := l.res.ContentChildren()
	covered := make(map[Resource]bool, len(content))
	for _, c := range content {
		covered[c] = true
	}

	var out []Resource
	for _, c := range l.res.Children() {
		if !covered[c] {
			out = append(out, c)
		}
	}
	return out
}

// wireContainer connects a container loader's request signals to nested
// Managers cloned from the owner and forwards their results back into the
// loader. The virtualization request and the ready-phase request each get
// their own nested batch; the loader is ready once every spawned batch is.
func wireContainer(owner *Manager, loader ContainerLoader) Loader {
	w := &containerWiring{owner: owner, loader: loader}

	ev := loader.Events()
	ev.On(EventRequestChildren, w.checkContent)
	ev.On(EventRequestReadyChildren, w.checkSized)
	ev.On(EventRequestDestroy, w.destroy)
	return loader
}

type containerWiring struct {
	owner  *Manager
	loader ContainerLoader

	mu        sync.Mutex
	content   *Manager
	sized     *Manager
	pending   int
	destroyed bool
}

func (w *containerWiring) checkContent(p any) {
	nested := w.spawn(&w.content)
	if nested == nil {
		return
	}
	nested.OnPreReady(func(e PreReadyEvent) {
		w.loader.OnPreReady(e.HasLoading)
	})
	nested.Check(p.(ChildrenRequest).Children)
}

func (w *containerWiring) checkSized(p any) {
	nested := w.spawn(&w.sized)
	if nested == nil {
		return
	}
	nested.Check(p.(ChildrenRequest).Children)
}

// spawn clones the owner for one nested batch and counts it toward the
// ready aggregation. Returns nil after destruction.
func (w *containerWiring) spawn(slot **Manager) *Manager {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil
	}
	nested := w.owner.Clone()
	*slot = nested
	w.pending++
	w.mu.Unlock()

	nested.OnError(func(e ErrorEvent) {
		w.loader.OnError(e.Target)
	})
	nested.OnReady(func(ReadyEvent) {
		w.settle()
	})
	return nested
}

// settle retires one nested batch. The ready-phase batch is always spawned
// before the virtualization batch can settle (its pre-ready precedes its
// ready), so a zero pending count means the container is done.
func (w *containerWiring) settle() {
	w.mu.Lock()
	w.pending--
	done := w.pending == 0 && !w.destroyed
	w.mu.Unlock()

	if done {
		w.loader.OnReady(false)
	}
}

func (w *containerWiring) destroy(any) {
	w.mu.Lock()
	w.destroyed = true
	content, sized := w.content, w.sized
	w.mu.Unlock()

	if content != nil {
		content.Destroy()
	}
	if sized != nil {
		sized.Destroy()
	}
}
