// Package imready reports when the externally loaded resources of a
// document are ready.
//
// This is the recommended import for most applications:
//
//	import "github.com/imready-go/imready"
//
// Usage:
//
//	m := imready.New()
//	defer m.Destroy()
//
//	m.OnPreReady(func(e imready.PreReadyEvent) {
//	    // every resource has an approximate size, layout can settle
//	}).OnReady(func(e imready.ReadyEvent) {
//	    // every resource loaded or failed
//	})
//
//	m.Check(resources)
package imready

import (
	"github.com/imready-go/imready/pkg/ready"
)

// DefaultPrefix is the default marker attribute prefix.
const DefaultPrefix = ready.DefaultPrefix

// Manager aggregates the readiness of a batch of resources.
type Manager = ready.Manager

// Resource is anything the manager can check.
type Resource = ready.Resource

// Container is a resource whose readiness is the readiness of its children.
type Container = ready.Container

// Lazy marks a resource as deferred-loading.
type Lazy = ready.Lazy

// Loader drives one resource to its milestones.
type Loader = ready.Loader

// LoaderBase carries the common loader bookkeeping.
type LoaderBase = ready.LoaderBase

// LoaderConfig is handed to loader factories.
type LoaderConfig = ready.LoaderConfig

// LoaderFactory builds a loader for a resource.
type LoaderFactory = ready.LoaderFactory

// Event payloads delivered to subscribers.
type (
	ErrorEvent           = ready.ErrorEvent
	PreReadyElementEvent = ready.PreReadyElementEvent
	PreReadyEvent        = ready.PreReadyEvent
	ReadyElementEvent    = ready.ReadyElementEvent
	ReadyEvent           = ready.ReadyEvent
)

// Option configures a Manager.
type Option = ready.Option

// New creates a Manager.
func New(opts ...Option) *Manager {
	return ready.New(opts...)
}

// WithPrefix sets the marker attribute prefix.
func WithPrefix(prefix string) Option {
	return ready.WithPrefix(prefix)
}

// WithLoader registers a loader factory for a resource kind.
func WithLoader(kind string, factory LoaderFactory) Option {
	return ready.WithLoader(kind, factory)
}
