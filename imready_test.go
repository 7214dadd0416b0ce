package imready_test

import (
	"testing"
	"time"

	"github.com/imready-go/imready"
)

type staticResource struct{ name string }

func (r staticResource) Kind() string { return "static" }

func TestFacadeChecksBatch(t *testing.T) {
	m := imready.New()
	defer m.Destroy()

	done := make(chan imready.ReadyEvent, 1)
	m.OnReady(func(e imready.ReadyEvent) { done <- e })

	m.Check([]imready.Resource{staticResource{"a"}, staticResource{"b"}})

	select {
	case e := <-done:
		if e.TotalCount != 2 {
			t.Errorf("TotalCount = %d, want 2", e.TotalCount)
		}
		if e.ErrorCount != 0 {
			t.Errorf("ErrorCount = %d, want 0", e.ErrorCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not settle")
	}
}

func TestFacadeCustomLoader(t *testing.T) {
	factory := func(res imready.Resource, _ imready.LoaderConfig) imready.Loader {
		return &sizedLoader{}
	}

	m := imready.New(imready.WithLoader("static", factory))
	defer m.Destroy()

	order := make(chan string, 2)
	m.OnPreReady(func(imready.PreReadyEvent) { order <- "preReady" })
	m.OnReady(func(imready.ReadyEvent) { order <- "ready" })

	m.Check([]imready.Resource{staticResource{"a"}})

	for _, want := range []string{"preReady", "ready"} {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("milestone = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing %s milestone", want)
		}
	}
}

type sizedLoader struct {
	imready.LoaderBase
}

func (l *sizedLoader) Check() {
	l.OnPreReady()
	l.OnReady()
}

func (l *sizedLoader) Destroy() {}
