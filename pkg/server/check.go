package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imready-go/imready/pkg/loaders"
	"github.com/imready-go/imready/pkg/markup"
	"github.com/imready-go/imready/pkg/ready"
)

// checkRequest is the JSON body of POST /check and the first WebSocket
// message on /ws. Exactly one of HTML and URLs must be set.
type checkRequest struct {
	// HTML is the document to scan.
	HTML string `json:"html,omitempty"`

	// URLs checks a plain list of resources without a document.
	URLs []urlRef `json:"urls,omitempty"`

	// BaseURL resolves relative resource URLs.
	BaseURL string `json:"baseURL,omitempty"`

	// Prefix overrides the configured marker attribute prefix.
	Prefix string `json:"prefix,omitempty"`

	// Tags overrides the configured scanned tags.
	Tags []string `json:"tags,omitempty"`

	// Timeout overrides the configured batch timeout (e.g. "10s").
	Timeout string `json:"timeout,omitempty"`
}

// urlRef is one entry of a checkRequest URL list.
type urlRef struct {
	URL string `json:"url"`

	// Kind selects the loader (default: "img").
	Kind string `json:"kind,omitempty"`

	// Lazy marks the resource as deferred-loading.
	Lazy bool `json:"lazy,omitempty"`
}

// elementResult is the terminal outcome of one scanned resource.
type elementResult struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Source   string `json:"source,omitempty"`
	HasError bool   `json:"hasError"`
}

// checkResponse summarizes a settled batch.
type checkResponse struct {
	TotalCount      int             `json:"totalCount"`
	ErrorCount      int             `json:"errorCount"`
	TotalErrorCount int             `json:"totalErrorCount"`
	HasLoading      bool            `json:"hasLoading"`
	Elements        []elementResult `json:"elements"`
}

var errEmptyRequest = errors.New("request needs html or urls")

// scanRequest parses the request document, or its URL list, and returns
// the checkable resources together with the effective marker prefix.
func (s *Server) scanRequest(req *checkRequest) ([]ready.Resource, string, error) {
	prefix := req.Prefix
	if prefix == "" {
		prefix = s.config.Prefix
	}

	if strings.TrimSpace(req.HTML) == "" {
		if len(req.URLs) == 0 {
			return nil, "", errEmptyRequest
		}
		resources := make([]ready.Resource, len(req.URLs))
		for i, ref := range req.URLs {
			kind := ref.Kind
			if kind == "" {
				kind = "img"
			}
			resources[i] = &loaders.URLResource{
				ResourceKind: kind,
				URL:          ref.URL,
				Deferred:     ref.Lazy,
			}
		}
		return resources, prefix, nil
	}

	doc, err := markup.Parse(strings.NewReader(req.HTML))
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}

	tags := req.Tags
	if len(tags) == 0 {
		tags = s.config.Tags
	}

	var base *url.URL
	if req.BaseURL != "" {
		base, err = url.Parse(req.BaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("parse base url: %w", err)
		}
	}

	scanner := &markup.Scanner{Prefix: prefix, Tags: tags, BaseURL: base}
	return scanner.Scan(doc), prefix, nil
}

// newManager builds a manager wired with the configured loaders.
func (s *Server) newManager(prefix string) *ready.Manager {
	opts := []ready.Option{
		ready.WithPrefix(prefix),
		ready.WithLoader("img", loaders.Image(s.config.HTTPClient)),
		ready.WithLoader("video", loaders.Video(s.config.HTTPClient)),
	}
	if s.config.S3 != nil {
		opts = append(opts, ready.WithLoader(loaders.S3Kind, loaders.S3Object(s.config.S3)))
	}
	return ready.New(opts...)
}

// checkTimeout resolves the per-request batch timeout.
func (s *Server) checkTimeout(req *checkRequest) time.Duration {
	if req.Timeout != "" {
		if d, err := time.ParseDuration(req.Timeout); err == nil && d > 0 && d <= s.config.CheckTimeout {
			return d
		}
	}
	return s.config.CheckTimeout
}

// runCheck checks every resource and blocks until the batch settles or
// the context expires.
func (s *Server) runCheck(ctx context.Context, prefix string, resources []ready.Resource) (*checkResponse, error) {
	m := s.newManager(prefix)
	defer m.Destroy()

	resp := &checkResponse{Elements: make([]elementResult, len(resources))}
	done := make(chan struct{})

	m.OnPreReady(func(e ready.PreReadyEvent) {
		resp.HasLoading = e.HasLoading
	})
	m.OnReadyElement(func(e ready.ReadyElementEvent) {
		if e.Index < 0 || e.Index >= len(resp.Elements) {
			return
		}
		resp.Elements[e.Index] = elementResult{
			Index:    e.Index,
			Kind:     e.Resource.Kind(),
			Source:   sourceOf(e.Resource),
			HasError: e.HasError,
		}
	})
	m.OnReady(func(e ready.ReadyEvent) {
		resp.TotalCount = e.TotalCount
		resp.ErrorCount = e.ErrorCount
		resp.TotalErrorCount = e.TotalErrorCount
		close(done)
	})

	if s.config.Tracer != nil {
		ctx = s.config.Tracer.Observe(ctx, m)
	}
	if s.config.Metrics != nil {
		s.config.Metrics.Observe(m)
	}

	m.Check(resources)

	select {
	case <-done:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func sourceOf(res ready.Resource) string {
	if sourced, ok := res.(loaders.Sourced); ok {
		return sourced.Source()
	}
	return ""
}

// handleCheck serves POST /check.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resources, prefix, err := s.scanRequest(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout(&req))
	defer cancel()

	resp, err := s.runCheck(ctx, prefix, resources)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, "check timed out", http.StatusGatewayTimeout)
			return
		}
		s.logger.Error("check failed", "error", err)
		http.Error(w, "check failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
