package loaders

import "github.com/imready-go/imready/pkg/ready"

// Sourced is implemented by resources that reference external content by
// URL. The markup package's elements implement it; URLResource covers
// callers that check plain URLs without a document.
type Sourced interface {
	Source() string
}

// URLResource is a standalone checkable resource for a single URL.
type URLResource struct {
	// ResourceKind selects the loader, e.g. "img" or "video".
	ResourceKind string

	// URL is the content location.
	URL string

	// Deferred marks the resource as lazy-loading.
	Deferred bool
}

func (r *URLResource) Kind() string   { return r.ResourceKind }
func (r *URLResource) Source() string { return r.URL }
func (r *URLResource) Lazy() bool     { return r.Deferred }

var _ ready.Resource = (*URLResource)(nil)
var _ ready.Lazy = (*URLResource)(nil)

// sourceOf extracts the content URL from a resource.
func sourceOf(res ready.Resource) (string, bool) {
	s, ok := res.(Sourced)
	if !ok {
		return "", false
	}
	src := s.Source()
	return src, src != ""
}
