package markup

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/imready-go/imready/pkg/ready"
)

// Element wraps one HTML element as a checkable resource. Elements of a
// kind with a registered loader (img, video) act as leaves; anything else
// acts as a container of the checkable elements beneath it.
type Element struct {
	sel    *goquery.Selection
	prefix string
	tags   []string
	base   *url.URL
}

var _ ready.Container = (*Element)(nil)
var _ ready.Lazy = (*Element)(nil)

// Kind returns the lowercased tag name.
func (e *Element) Kind() string {
	return goquery.NodeName(e.sel)
}

// Lazy reports a loading="lazy" marker.
func (e *Element) Lazy() bool {
	v, _ := e.sel.Attr("loading")
	return strings.EqualFold(v, "lazy")
}

// Skip reports the skip marker attribute; skipped elements are excluded
// from scanning and child discovery.
func (e *Element) Skip() bool {
	v, ok := e.sel.Attr(e.prefix + "skip")
	return ok && v != "false"
}

// Size returns the approximate size declared through the marker attributes.
func (e *Element) Size() (width, height int, ok bool) {
	w, werr := strconv.Atoi(e.attr("width"))
	h, herr := strconv.Atoi(e.attr("height"))
	if werr != nil || herr != nil {
		return 0, 0, false
	}
	return w, h, true
}

// Sized reports whether the element declares an approximate size up front.
func (e *Element) Sized() bool {
	_, _, ok := e.Size()
	return ok
}

// Source returns the element's content URL, resolved against the scanner's
// base URL when one was set.
func (e *Element) Source() string {
	src, ok := e.sel.Attr("src")
	if !ok || src == "" {
		return ""
	}
	if e.base == nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return e.base.ResolveReference(ref).String()
}

// Children returns the checkable elements beneath this one, in document
// order, excluding skipped elements.
func (e *Element) Children() []ready.Resource {
	var children []ready.Resource
	e.sel.Find(strings.Join(e.tags, ", ")).Each(func(_ int, sel *goquery.Selection) {
		child := e.wrap(sel)
		if !child.Skip() {
			children = append(children, child)
		}
	})
	return children
}

// ContentChildren returns the children that still need the pre-ready
// virtualization phase: no approximate size declared.
func (e *Element) ContentChildren() []ready.Resource {
	var content []ready.Resource
	for _, child := range e.Children() {
		if el, ok := child.(*Element); ok && el.Sized() {
			continue
		}
		content = append(content, child)
	}
	return content
}

// Attr exposes a raw attribute for custom loader factories.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *Element) attr(name string) string {
	v, _ := e.sel.Attr(e.prefix + name)
	return v
}

func (e *Element) wrap(sel *goquery.Selection) *Element {
	return &Element{sel: sel, prefix: e.prefix, tags: e.tags, base: e.base}
}
