// Package markup discovers checkable resources in HTML documents.
//
// It is a collaborator around the core in pkg/ready: scanning yields
// ready.Resource values for img and video elements plus containers of such
// elements, carrying the marker attributes (data-width, data-height,
// loading="lazy", data-skip by default) that loaders use for approximate
// sizing and deferred-load detection before the real content arrives.
package markup
