package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/imready-go/imready/internal/config"
	"github.com/imready-go/imready/pkg/loaders"
	"github.com/imready-go/imready/pkg/markup"
	"github.com/imready-go/imready/pkg/ready"
)

func checkCmd() *cobra.Command {
	var (
		baseURL  string
		prefix   string
		tags     []string
		timeout  time.Duration
		asJSON   bool
		tolerant bool
	)

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check every resource in an HTML document",
		Long: `Check parses an HTML document, finds its loadable resources, and
waits until every one of them settled: loaded or failed.

Reads from the file argument, or from stdin when the argument is
missing or "-".

Examples:
  imready check page.html
  curl -s https://example.com | imready check --base-url=https://example.com
  imready check page.html --tags=img,video,iframe --timeout=10s --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(checkOptions{
				path:     argOrStdin(args),
				baseURL:  baseURL,
				prefix:   prefix,
				tags:     tags,
				timeout:  timeout,
				asJSON:   asJSON,
				tolerant: tolerant,
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for relative resource paths")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Marker attribute prefix (default from imready.json)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags scanned for resources (default from imready.json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Batch timeout (default from imready.json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&tolerant, "tolerant", false, "Exit zero even when resources failed")

	return cmd
}

type checkOptions struct {
	path     string
	baseURL  string
	prefix   string
	tags     []string
	timeout  time.Duration
	asJSON   bool
	tolerant bool
}

type checkResult struct {
	TotalCount      int  `json:"totalCount"`
	ErrorCount      int  `json:"errorCount"`
	TotalErrorCount int  `json:"totalErrorCount"`
	HasLoading      bool `json:"hasLoading"`
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func readDocument(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func runCheck(opts checkOptions) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if opts.prefix == "" {
		opts.prefix = cfg.Prefix
	}
	if len(opts.tags) == 0 {
		opts.tags = cfg.Tags
	}
	if opts.timeout == 0 {
		opts.timeout = cfg.BatchTimeout()
	}

	var base *url.URL
	if opts.baseURL != "" {
		base, err = url.Parse(opts.baseURL)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
	}

	src, err := readDocument(opts.path)
	if err != nil {
		return err
	}
	doc, err := markup.Parse(src)
	src.Close()
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	scanner := &markup.Scanner{Prefix: opts.prefix, Tags: opts.tags, BaseURL: base}
	resources := scanner.Scan(doc)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	manager, err := newManager(ctx, cfg, opts.prefix)
	if err != nil {
		return err
	}
	defer manager.Destroy()

	result := &checkResult{}
	done := make(chan struct{})

	if !opts.asJSON {
		manager.OnPreReady(func(e ready.PreReadyEvent) {
			info("pre-ready: %d/%d sized", e.ReadyCount, e.TotalCount)
		})
		manager.OnReadyElement(func(e ready.ReadyElementEvent) {
			if e.HasError {
				warn("failed: %s", describe(e.Resource))
			} else {
				success("loaded: %s", describe(e.Resource))
			}
		})
	}
	manager.OnPreReady(func(e ready.PreReadyEvent) {
		result.HasLoading = e.HasLoading
	})
	manager.OnReady(func(e ready.ReadyEvent) {
		result.TotalCount = e.TotalCount
		result.ErrorCount = e.ErrorCount
		result.TotalErrorCount = e.TotalErrorCount
		close(done)
	})

	manager.Check(resources)

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("check timed out after %s", opts.timeout)
	}

	if opts.asJSON {
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		if err := out.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Println()
		success("ready: %d resources, %d failed", result.TotalCount, result.ErrorCount)
	}

	if result.ErrorCount > 0 && !opts.tolerant {
		return fmt.Errorf("%d of %d resources failed", result.ErrorCount, result.TotalCount)
	}
	return nil
}

// newManager wires the loaders named by the configuration.
func newManager(ctx context.Context, cfg *config.Config, prefix string) (*ready.Manager, error) {
	client := &http.Client{Timeout: cfg.BatchTimeout()}
	opts := []ready.Option{
		ready.WithPrefix(prefix),
		ready.WithLoader("img", loaders.Image(client)),
		ready.WithLoader("video", loaders.Video(client)),
	}

	if cfg.S3.Region != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		opts = append(opts, ready.WithLoader(loaders.S3Kind, loaders.S3Object(s3.NewFromConfig(awsCfg))))
	}

	return ready.New(opts...), nil
}

func describe(res ready.Resource) string {
	if sourced, ok := res.(loaders.Sourced); ok && sourced.Source() != "" {
		return fmt.Sprintf("%s %s", res.Kind(), sourced.Source())
	}
	return res.Kind()
}
