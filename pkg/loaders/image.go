package loaders

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"

	// Decoders for the common web image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/imready-go/imready/pkg/ready"
)

// Image returns a loader factory for img resources fetched over HTTP.
// Pre-ready fires as soon as the image header decodes (intrinsic dimensions
// known from a body prefix), ready once the body is fully drained. A
// resource without a usable source URL fails and settles immediately.
//
// A nil client uses http.DefaultClient.
func Image(client *http.Client) ready.LoaderFactory {
	if client == nil {
		client = http.DefaultClient
	}
	return func(res ready.Resource, _ ready.LoaderConfig) ready.Loader {
		l := &imageLoader{res: res, client: client}
		l.SetHasLoading(ready.IsLazy(res))
		return l
	}
}

type imageLoader struct {
	ready.LoaderBase
	res    ready.Resource
	client *http.Client

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func (l *imageLoader) Check() {
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

func (l *imageLoader) Destroy() {
	l.cancelMu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancelMu.Unlock()
	l.Events().RemoveAll()
}

func (l *imageLoader) fetch(ctx context.Context, src string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.OnError(err)
		l.OnReady()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.OnError(fmt.Errorf("loaders: image %s: status %s", src, resp.Status))
		l.OnReady()
		return
	}

	// The header bytes are enough for the intrinsic size; the rest of the
	// body only matters for the ready milestone.
	br := bufio.NewReader(resp.Body)
	if _, _, err := image.DecodeConfig(br); err != nil {
		l.OnError(fmt.Errorf("loaders: image %s: decode: %w", src, err))
	} else {
		l.OnPreReady()
	}

	if _, err := io.Copy(io.Discard, br); err != nil {
		l.OnError(err)
	}
	l.OnReady()
}
