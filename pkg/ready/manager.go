package ready

import "sync"

// DefaultPrefix is the marker prefix collaborators use for kind-specific
// metadata attributes.
const DefaultPrefix = "data-"

// Options is the immutable Manager configuration. It is the only state
// copied by Clone.
type Options struct {
	// Prefix is the metadata marker prefix handed to loader factories.
	Prefix string

	// Loaders maps resource-kind discriminators to loader factories.
	Loaders map[string]LoaderFactory

	// Loop overrides the dispatch loop. When nil the Manager creates and
	// owns one; nested Managers always share their owner's loop.
	Loop *Loop
}

// Option configures a Manager.
type Option func(*Options)

// WithPrefix sets the metadata marker prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithLoader registers a loader factory for a resource kind.
func WithLoader(kind string, factory LoaderFactory) Option {
	return func(o *Options) {
		if o.Loaders == nil {
			o.Loaders = make(map[string]LoaderFactory)
		}
		o.Loaders[kind] = factory
	}
}

// WithLoop sets the dispatch loop. The Manager does not close a loop it was
// given.
func WithLoop(l *Loop) Option {
	return func(o *Options) {
		o.Loop = l
	}
}

// resourceInfo is the per-resource batch record. It owns its loader; the
// resource itself is not owned and its lifetime is controlled externally.
type resourceInfo struct {
	loader     Loader
	resource   Resource
	index      int
	hasLoading bool
	hasError   bool
	isPreReady bool
	isReady    bool
}

// Manager tracks one batch of resources toward the pre-ready and ready
// milestones. See the package documentation for the protocol.
type Manager struct {
	events Emitter

	// Immutable configuration, shared structurally with clones.
	prefix    string
	factories map[string]LoaderFactory
	loop      *Loop
	ownsLoop  bool

	mu              sync.Mutex
	infos           []*resourceInfo
	totalCount      int
	preReadyCount   int
	readyCount      int
	totalErrorCount int
	isPreReadyOver  bool
	destroyed       bool

	// generation invalidates scheduled work from discarded batches. Every
	// Check, Clear and Destroy bumps it; handlers bound to an older
	// generation become no-ops.
	generation uint64

	// Batch milestones already emitted for the current generation. OnPreReady
	// and OnReady replay them to handlers that attach after the fact, so the
	// fluent attach-after-Check pattern never loses a milestone to the loop
	// goroutine winning the race.
	firedPreReady *PreReadyEvent
	firedReady    *ReadyEvent
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	o := Options{Prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}

	m := &Manager{
		prefix:    o.Prefix,
		factories: o.Loaders,
		loop:      o.Loop,
	}
	if m.loop == nil {
		m.loop = NewLoop()
		m.ownsLoop = true
	}
	return m
}

// Clone returns a fresh Manager carrying only this Manager's immutable
// configuration: loader table, prefix and dispatch loop. Batch state is
// never copied.
func (m *Manager) Clone() *Manager {
	return &Manager{
		prefix:    m.prefix,
		factories: m.factories,
		loop:      m.loop,
	}
}

// Check discards any in-flight batch and starts checking the given
// resources. It returns the Manager so listeners can be attached fluently
// right after the call; a batch milestone that fires before OnPreReady or
// OnReady runs is replayed to the late handler.
func (m *Manager) Check(resources []Resource) *Manager {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return m
	}
	doomed := m.resetLocked()
	gen := m.generation

	infos := make([]*resourceInfo, len(resources))
	for i, res := range resources {
		infos[i] = &resourceInfo{index: i, resource: res}
	}
	m.infos = infos
	m.totalCount = len(infos)
	m.mu.Unlock()

	destroyLoaders(doomed)

	if len(infos) == 0 {
		// Empty batch: both milestones fire unconditionally on the next
		// loop turn.
		m.loop.Post(func() {
			m.emitBatchPreReady(gen, PreReadyEvent{TotalCount: 0, IsReady: true})
			m.emitBatchReady(gen, ReadyEvent{})
		})
		return m
	}

	// Construct and wire every loader before any of them starts observing,
	// so totalCount is fixed before the first signal can arrive.
	for _, info := range infos {
		info.loader = m.loaderFor(info.resource)
		m.bindLoader(gen, info)
	}
	for _, info := range infos {
		info.loader.Check()
	}
	return m
}

// loaderFor dispatches on the resource kind: a registered factory wins,
// container-capable resources get the nested-Manager wiring, anything else
// settles instantly.
func (m *Manager) loaderFor(res Resource) Loader {
	if factory, ok := m.factories[res.Kind()]; ok {
		return factory(res, LoaderConfig{Prefix: m.prefix})
	}
	if c, ok := res.(Container); ok {
		return wireContainer(m, newContainerLoader(c))
	}
	return newInstantLoader(res)
}

// bindLoader subscribes to a loader's signals for the current generation.
// The handler bodies are posted onto the loop, which both serializes the
// bookkeeping and keeps loader goroutines out of Manager state.
func (m *Manager) bindLoader(gen uint64, info *resourceInfo) {
	ev := info.loader.Events()
	index := info.index

	ev.On(EventError, func(p any) {
		e := p.(LoaderError)
		m.loop.Post(func() { m.onLoaderError(gen, index, e) })
	})
	ev.On(EventPreReady, func(p any) {
		e := p.(LoaderPreReady)
		m.loop.Post(func() { m.onLoaderPreReady(gen, index, e) })
	})
	ev.On(EventReady, func(p any) {
		e := p.(LoaderReady)
		m.loop.Post(func() { m.onLoaderReady(gen, index, e) })
	})
}

func (m *Manager) onLoaderError(gen uint64, index int, e LoaderError) {
	m.mu.Lock()
	if gen != m.generation || m.destroyed {
		m.mu.Unlock()
		return
	}
	info := m.infos[index]
	info.hasError = true
	m.totalErrorCount++
	out := ErrorEvent{
		Resource:        info.resource,
		Index:           index,
		Target:          e.Target,
		ErrorCount:      m.errorCountLocked(),
		TotalErrorCount: m.totalErrorCount,
	}
	m.mu.Unlock()

	m.events.Emit(EventError, out)
}

func (m *Manager) onLoaderPreReady(gen uint64, index int, e LoaderPreReady) {
	m.mu.Lock()
	if gen != m.generation || m.destroyed {
		m.mu.Unlock()
		return
	}
	info := m.infos[index]
	if info.isPreReady {
		m.mu.Unlock()
		return
	}
	elem, batch, batchPre := m.markPreReadyLocked(info, e.HasLoading)
	m.mu.Unlock()

	m.events.Emit(EventPreReadyElement, elem)
	if batchPre {
		m.emitBatchPreReady(gen, batch)
	}
}

func (m *Manager) onLoaderReady(gen uint64, index int, e LoaderReady) {
	m.mu.Lock()
	if gen != m.generation || m.destroyed {
		m.mu.Unlock()
		return
	}
	info := m.infos[index]
	if info.isReady {
		m.mu.Unlock()
		return
	}

	// A ready carrying WithPreReady folds both milestones into this tick.
	var preElem PreReadyElementEvent
	var preBatch PreReadyEvent
	var firedPre, batchPre bool
	if e.WithPreReady && !info.isPreReady {
		preElem, preBatch, batchPre = m.markPreReadyLocked(info, e.HasLoading)
		firedPre = true
	}

	info.isReady = true
	info.hasLoading = info.hasLoading || e.HasLoading
	m.readyCount++
	batchReady := m.readyCount == m.totalCount

	elem := ReadyElementEvent{
		Resource:        info.resource,
		Index:           index,
		HasError:        info.hasError,
		ErrorCount:      m.errorCountLocked(),
		TotalErrorCount: m.totalErrorCount,
		PreReadyCount:   m.preReadyCount,
		ReadyCount:      m.readyCount,
		TotalCount:      m.totalCount,
		IsPreReady:      info.isPreReady,
		IsReady:         info.isReady,
		HasLoading:      info.hasLoading,
		IsPreReadyOver:  m.isPreReadyOver,
	}
	var batch ReadyEvent
	if batchReady {
		batch = ReadyEvent{
			ErrorCount:      m.errorCountLocked(),
			TotalErrorCount: m.totalErrorCount,
			TotalCount:      m.totalCount,
		}
	}
	m.mu.Unlock()

	// Emissions run outside the lock; a handler may legally call Check and
	// discard this batch mid-sequence, so the generation is re-checked
	// before each later milestone.
	if firedPre {
		m.events.Emit(EventPreReadyElement, preElem)
	}
	if batchPre {
		m.emitBatchPreReady(gen, preBatch)
	}
	if !m.sameGeneration(gen) {
		return
	}
	m.events.Emit(EventReadyElement, elem)
	if batchReady {
		m.emitBatchReady(gen, batch)
	}
}

// emitBatchPreReady records the batch pre-ready milestone and notifies the
// handlers attached so far. Recording and the handler snapshot happen under
// the same lock as subscription, so a late handler is either in the snapshot
// or replayed, never both.
func (m *Manager) emitBatchPreReady(gen uint64, e PreReadyEvent) {
	m.mu.Lock()
	if gen != m.generation || m.destroyed {
		m.mu.Unlock()
		return
	}
	m.firedPreReady = &e
	subs := m.events.subscribers(EventPreReady)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// emitBatchReady is emitBatchPreReady for the ready milestone.
func (m *Manager) emitBatchReady(gen uint64, e ReadyEvent) {
	m.mu.Lock()
	if gen != m.generation || m.destroyed {
		m.mu.Unlock()
		return
	}
	m.firedReady = &e
	subs := m.events.subscribers(EventReady)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// markPreReadyLocked sets the pre-ready flag, bumps the counter, and builds
// the element event plus, when the counter reaches the total, the batch
// event. Caller holds mu and has verified the flag is unset.
func (m *Manager) markPreReadyLocked(info *resourceInfo, hasLoading bool) (PreReadyElementEvent, PreReadyEvent, bool) {
	info.isPreReady = true
	info.hasLoading = info.hasLoading || hasLoading
	m.preReadyCount++
	batchPre := m.preReadyCount == m.totalCount

	elem := PreReadyElementEvent{
		Resource:      info.resource,
		Index:         info.index,
		PreReadyCount: m.preReadyCount,
		ReadyCount:    m.readyCount,
		TotalCount:    m.totalCount,
		IsPreReady:    info.isPreReady,
		IsReady:       info.isReady,
		HasLoading:    info.hasLoading,
	}
	var batch PreReadyEvent
	if batchPre {
		m.isPreReadyOver = true
		batch = PreReadyEvent{
			ReadyCount: m.readyCount,
			TotalCount: m.totalCount,
			IsReady:    m.readyCount == m.totalCount,
			HasLoading: m.hasLoadingLocked(),
		}
	}
	return elem, batch, batchPre
}

// Clear destroys every unfinished loader, zeroes the counters and empties
// the batch. The Manager remains usable.
func (m *Manager) Clear() {
	m.mu.Lock()
	doomed := m.resetLocked()
	m.mu.Unlock()

	destroyLoaders(doomed)
}

// Destroy is Clear plus detaching all of the Manager's own listeners. The
// instance is not reusable afterward.
func (m *Manager) Destroy() {
	m.mu.Lock()
	doomed := m.resetLocked()
	m.destroyed = true
	m.mu.Unlock()

	destroyLoaders(doomed)
	m.events.RemoveAll()
	if m.ownsLoop {
		m.loop.Close()
	}
}

// resetLocked discards the current batch and returns the loaders still in
// flight so the caller can destroy them outside the lock. Settled loaders
// are left alone, they are already terminal.
func (m *Manager) resetLocked() []Loader {
	var doomed []Loader
	for _, info := range m.infos {
		if !info.isReady && info.loader != nil {
			doomed = append(doomed, info.loader)
		}
	}
	m.infos = nil
	m.totalCount = 0
	m.preReadyCount = 0
	m.readyCount = 0
	m.totalErrorCount = 0
	m.isPreReadyOver = false
	m.firedPreReady = nil
	m.firedReady = nil
	m.generation++
	return doomed
}

func destroyLoaders(loaders []Loader) {
	for _, l := range loaders {
		l.Destroy()
	}
}

func (m *Manager) sameGeneration(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.generation && !m.destroyed
}

// TotalCount returns the size of the current batch, fixed at Check time.
func (m *Manager) TotalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalCount
}

// IsPreReady reports whether every resource in the current batch reached
// pre-ready. Recomputed on demand so it reflects truth mid-batch.
func (m *Manager) IsPreReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if !info.isPreReady {
			return false
		}
	}
	return true
}

// IsReady reports whether every resource in the current batch settled.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if !info.isReady {
			return false
		}
	}
	return true
}

// errorCountLocked is the number of distinct resources with at least one
// failure, a set cardinality rather than a running sum.
func (m *Manager) errorCountLocked() int {
	n := 0
	for _, info := range m.infos {
		if info.hasError {
			n++
		}
	}
	return n
}

func (m *Manager) hasLoadingLocked() bool {
	for _, info := range m.infos {
		if info.hasLoading {
			return true
		}
	}
	return false
}

// Events returns the Manager's consumer-facing event channel. The typed
// subscription helpers below cover the common cases; unlike them, handlers
// attached directly to the channel are not replayed batch milestones that
// fired before attachment.
func (m *Manager) Events() *Emitter {
	return &m.events
}

// OnError attaches a handler for per-resource load failures.
func (m *Manager) OnError(fn func(ErrorEvent)) *Manager {
	m.events.On(EventError, func(p any) { fn(p.(ErrorEvent)) })
	return m
}

// OnPreReadyElement attaches a handler for per-resource pre-ready.
func (m *Manager) OnPreReadyElement(fn func(PreReadyElementEvent)) *Manager {
	m.events.On(EventPreReadyElement, func(p any) { fn(p.(PreReadyElementEvent)) })
	return m
}

// OnPreReady attaches a handler for the batch pre-ready milestone. If the
// milestone already fired for the current batch the handler receives it
// anyway, on the next loop turn.
func (m *Manager) OnPreReady(fn func(PreReadyEvent)) *Manager {
	handler := func(p any) { fn(p.(PreReadyEvent)) }

	m.mu.Lock()
	m.events.On(EventPreReady, handler)
	missed := m.firedPreReady
	gen := m.generation
	m.mu.Unlock()

	if missed != nil {
		e := *missed
		m.loop.Post(func() {
			if m.sameGeneration(gen) {
				handler(e)
			}
		})
	}
	return m
}

// OnReadyElement attaches a handler for per-resource ready.
func (m *Manager) OnReadyElement(fn func(ReadyElementEvent)) *Manager {
	m.events.On(EventReadyElement, func(p any) { fn(p.(ReadyElementEvent)) })
	return m
}

// OnReady attaches a handler for the batch ready milestone, with the same
// replay of an already-fired milestone as OnPreReady.
func (m *Manager) OnReady(fn func(ReadyEvent)) *Manager {
	handler := func(p any) { fn(p.(ReadyEvent)) }

	m.mu.Lock()
	m.events.On(EventReady, handler)
	missed := m.firedReady
	gen := m.generation
	m.mu.Unlock()

	if missed != nil {
		e := *missed
		m.loop.Post(func() {
			if m.sameGeneration(gen) {
				handler(e)
			}
		})
	}
	return m
}
