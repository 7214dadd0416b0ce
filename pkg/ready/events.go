package ready

// ErrorEvent reports one load failure within the current batch. A resource
// that fails repeatedly produces one ErrorEvent per failure; ErrorCount is
// the number of distinct failed resources, TotalErrorCount the number of
// failure signals observed.
type ErrorEvent struct {
	Resource        Resource
	Index           int
	Target          any
	ErrorCount      int
	TotalErrorCount int
}

// PreReadyElementEvent reports that one resource reached pre-ready.
type PreReadyElementEvent struct {
	Resource      Resource
	Index         int
	PreReadyCount int
	ReadyCount    int
	TotalCount    int
	IsPreReady    bool
	IsReady       bool
	HasLoading    bool
}

// PreReadyEvent is the batch-level pre-ready milestone, fired exactly once
// per Check call when every resource has an approximate size or a
// deferred-load marker.
type PreReadyEvent struct {
	ReadyCount int
	TotalCount int

	// IsReady reports that the ready milestone is reached in the same tick.
	IsReady bool

	// HasLoading reports that at least one resource is deferred-loading.
	HasLoading bool
}

// ReadyElementEvent reports that one resource reached terminal state,
// loaded or failed.
type ReadyElementEvent struct {
	Resource        Resource
	Index           int
	HasError        bool
	ErrorCount      int
	TotalErrorCount int
	PreReadyCount   int
	ReadyCount      int
	TotalCount      int
	IsPreReady      bool
	IsReady         bool
	HasLoading      bool

	// IsPreReadyOver reports that the batch pre-ready milestone had already
	// fired when this resource settled.
	IsPreReadyOver bool
}

// ReadyEvent is the batch-level ready milestone, fired exactly once per
// Check call when every resource has settled.
type ReadyEvent struct {
	ErrorCount      int
	TotalErrorCount int
	TotalCount      int
}
