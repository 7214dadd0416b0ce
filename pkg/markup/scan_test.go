package markup

import (
	"net/url"
	"strings"
	"testing"

	"github.com/imready-go/imready/pkg/ready"
)

const page = `<!doctype html>
<html><body>
  <div id="gallery" data-width="600" data-height="400">
    <img src="/a.png" data-width="100" data-height="50">
    <img src="/b.jpg" loading="lazy">
    <video src="clip.mp4"></video>
  </div>
  <img src="skipme.png" data-skip="true">
</body></html>`

func TestScanFindsLeavesInDocumentOrder(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	s := &Scanner{}

	resources := s.Scan(doc)
	if len(resources) != 3 {
		t.Fatalf("scanned %d resources, want 3 (skipped element excluded)", len(resources))
	}

	kinds := []string{"img", "img", "video"}
	for i, res := range resources {
		if res.Kind() != kinds[i] {
			t.Errorf("resource %d kind = %q, want %q", i, res.Kind(), kinds[i])
		}
	}
}

func TestElementMarkers(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	s := &Scanner{}
	resources := s.Scan(doc)

	sized := resources[0].(*Element)
	w, h, ok := sized.Size()
	if !ok || w != 100 || h != 50 {
		t.Errorf("Size() = %d,%d,%v, want 100,50,true", w, h, ok)
	}
	if sized.Lazy() {
		t.Error("first img should not be lazy")
	}

	lazy := resources[1].(*Element)
	if lazy.Sized() {
		t.Error("second img should not declare a size")
	}
	if !lazy.Lazy() {
		t.Error("second img should be lazy")
	}
}

func TestSourceResolution(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	base, _ := url.Parse("https://example.com/pages/index.html")
	s := &Scanner{BaseURL: base}
	resources := s.Scan(doc)

	tests := []struct {
		index int
		want  string
	}{
		{0, "https://example.com/a.png"},
		{1, "https://example.com/b.jpg"},
		{2, "https://example.com/pages/clip.mp4"},
	}
	for _, tt := range tests {
		el := resources[tt.index].(*Element)
		if got := el.Source(); got != tt.want {
			t.Errorf("resource %d source = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestContainerChildren(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	s := &Scanner{}

	gallery := &Element{
		sel:    doc.Find("#gallery").First(),
		prefix: s.prefix(),
		tags:   s.tags(),
	}
	if !gallery.Sized() {
		t.Error("gallery declares data-width/height, Sized() = false")
	}

	children := gallery.Children()
	if len(children) != 3 {
		t.Fatalf("gallery has %d children, want 3", len(children))
	}
	content := gallery.ContentChildren()
	if len(content) != 2 {
		t.Fatalf("gallery has %d content children, want 2 (the unsized ones)", len(content))
	}
}

func TestRootIsContainer(t *testing.T) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	s := &Scanner{}

	root, err := s.Root(doc)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := root.(ready.Container)
	if !ok {
		t.Fatal("root is not a container")
	}
	if n := len(c.Children()); n != 3 {
		t.Errorf("root has %d children, want 3", n)
	}
}

func TestCustomPrefix(t *testing.T) {
	const html = `<body><img src="x.png" x-width="10" x-height="20"></body>`
	doc, err := Parse(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	s := &Scanner{Prefix: "x-"}

	resources := s.Scan(doc)
	if len(resources) != 1 {
		t.Fatalf("scanned %d resources, want 1", len(resources))
	}
	w, h, ok := resources[0].(*Element).Size()
	if !ok || w != 10 || h != 20 {
		t.Errorf("Size() = %d,%d,%v, want 10,20,true", w, h, ok)
	}
}
