package markup

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/imready-go/imready/pkg/ready"
)

// DefaultTags are the element kinds checked as leaves.
var DefaultTags = []string{"img", "video"}

// ErrEmptyDocument is returned when the parsed document has no body.
var ErrEmptyDocument = errors.New("markup: empty document")

// Scanner discovers checkable resources in parsed documents.
type Scanner struct {
	// Prefix is the marker attribute prefix, ready.DefaultPrefix when empty.
	Prefix string

	// Tags are the leaf element kinds, DefaultTags when empty.
	Tags []string

	// BaseURL resolves relative src attributes when set.
	BaseURL *url.URL
}

func (s *Scanner) prefix() string {
	if s.Prefix == "" {
		return ready.DefaultPrefix
	}
	return s.Prefix
}

func (s *Scanner) tags() []string {
	if len(s.Tags) == 0 {
		return DefaultTags
	}
	return s.Tags
}

// Parse reads and parses an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Scan returns every checkable leaf element in the document, in document
// order, excluding skipped elements.
func (s *Scanner) Scan(doc *goquery.Document) []ready.Resource {
	var resources []ready.Resource
	doc.Find(strings.Join(s.tags(), ", ")).Each(func(_ int, sel *goquery.Selection) {
		el := &Element{sel: sel, prefix: s.prefix(), tags: s.tags(), base: s.BaseURL}
		if !el.Skip() {
			resources = append(resources, el)
		}
	})
	return resources
}

// Root returns the document body as a single container resource whose
// children are the checkable elements of the whole document. Checking the
// root exercises the container delegation path: the batch settles when
// every element beneath the body settled.
func (s *Scanner) Root(doc *goquery.Document) (ready.Resource, error) {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, ErrEmptyDocument
	}
	return &Element{sel: body, prefix: s.prefix(), tags: s.tags(), base: s.BaseURL}, nil
}
