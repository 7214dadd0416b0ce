package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/imready-go/imready/pkg/ready"
)

// Video returns a loader factory for video resources fetched over HTTP.
// Videos have no cheap in-process dimension probe, so pre-ready fires when
// the HEAD metadata arrives and ready once the content is drained.
//
// A nil client uses http.DefaultClient.
func Video(client *http.Client) ready.LoaderFactory {
	if client == nil {
		client = http.DefaultClient
	}
	return func(res ready.Resource, _ ready.LoaderConfig) ready.Loader {
		l := &videoLoader{res: res, client: client}
		l.SetHasLoading(ready.IsLazy(res))
		return l
	}
}

type videoLoader struct {
	ready.LoaderBase
	res    ready.Resource
	client *http.Client

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func (l *videoLoader) Check() {
	src, ok := sourceOf(l.res)
	if !ok {
		l.OnError(l.res)
		l.OnReady()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancelMu.Lock()
	l.cancel = cancel
	l.cancelMu.Unlock()

	go l.fetch(ctx, src)
}

func (l *videoLoader) Destroy() {
	l.cancelMu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancelMu.Unlock()
	l.Events().RemoveAll()
}

func (l *videoLoader) fetch(ctx context.Context, src string) {
	head, err := http.NewRequestWithContext(ctx, http.MethodHead, src, nil)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	resp, err := l.client.Do(head)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.OnError(fmt.Errorf("loaders: video %s: status %s", src, resp.Status))
		l.OnReady()
		return
	}
	l.OnPreReady()

	get, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	resp, err = l.client.Do(get)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.OnError(fmt.Errorf("loaders: video %s: status %s", src, resp.Status))
	} else if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		l.OnError(err)
	}
	l.OnReady()
}
