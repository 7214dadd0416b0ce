package loaders

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imready-go/imready/pkg/ready"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type batchResult struct {
	pre     chan ready.PreReadyEvent
	ready   chan ready.ReadyEvent
	errs    chan ready.ErrorEvent
	manager *ready.Manager
}

func checkBatch(t *testing.T, m *ready.Manager, resources []ready.Resource) *batchResult {
	t.Helper()
	r := &batchResult{
		pre:     make(chan ready.PreReadyEvent, 1),
		ready:   make(chan ready.ReadyEvent, 1),
		errs:    make(chan ready.ErrorEvent, 16),
		manager: m,
	}
	m.Check(resources).
		OnPreReady(func(e ready.PreReadyEvent) { r.pre <- e }).
		OnReady(func(e ready.ReadyEvent) { r.ready <- e }).
		OnError(func(e ready.ErrorEvent) { r.errs <- e })
	return r
}

func (r *batchResult) waitReady(t *testing.T) ready.ReadyEvent {
	t.Helper()
	select {
	case e := <-r.ready:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ready")
		return ready.ReadyEvent{}
	}
}

func TestImageLoaderTwoPhase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write(pngBytes(t, 320, 200))
	}))
	defer srv.Close()

	m := ready.New(ready.WithLoader("img", Image(srv.Client())))
	defer m.Destroy()

	res := &URLResource{ResourceKind: "img", URL: srv.URL + "/a.png"}
	r := checkBatch(t, m, []ready.Resource{res})

	select {
	case pre := <-r.pre:
		if pre.TotalCount != 1 {
			t.Errorf("preReady totalCount = %d, want 1", pre.TotalCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for preReady")
	}

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 0 || rdy.TotalCount != 1 {
		t.Errorf("ready = %+v, want one clean resource", rdy)
	}
}

func TestImageLoaderHTTPErrorStillSettles(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := ready.New(ready.WithLoader("img", Image(srv.Client())))
	defer m.Destroy()

	res := &URLResource{ResourceKind: "img", URL: srv.URL + "/missing.png"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 || rdy.TotalErrorCount != 1 {
		t.Errorf("ready = %+v, want one failed resource", rdy)
	}
	select {
	case e := <-r.errs:
		if e.Index != 0 {
			t.Errorf("error index = %d, want 0", e.Index)
		}
	default:
		t.Error("no error event observed")
	}
}

func TestImageLoaderUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	m := ready.New(ready.WithLoader("img", Image(srv.Client())))
	defer m.Destroy()

	res := &URLResource{ResourceKind: "img", URL: srv.URL + "/junk"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 {
		t.Errorf("ready errorCount = %d, want 1 for undecodable body", rdy.ErrorCount)
	}
}

func TestImageLoaderMissingSource(t *testing.T) {
	m := ready.New(ready.WithLoader("img", Image(nil)))
	defer m.Destroy()

	res := &URLResource{ResourceKind: "img"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 {
		t.Errorf("ready errorCount = %d, want 1 for missing source", rdy.ErrorCount)
	}
}
