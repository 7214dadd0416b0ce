package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "imready",
		Short: "Check when externally loaded resources are ready",
		Long: `imready checks the loading state of the resources referenced by an
HTML document: images, videos, and objects in remote storage.

Every resource passes two milestones:

  • pre-ready: its approximate size is known, layout can settle
  • ready: it finished loading, or failed terminally

The check command settles a single document from the command line;
the serve command exposes the same check over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		checkCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %s\n", colorRed, colorReset, err)
		os.Exit(1)
	}
}

const (
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Progress output for the check command: a colored status glyph per line.
func statusLine(color, glyph, format string, args ...any) {
	fmt.Printf("%s%s%s %s\n", color, glyph, colorReset, fmt.Sprintf(format, args...))
}

func success(format string, args ...any) { statusLine(colorGreen, "ok", format, args...) }
func warn(format string, args ...any)    { statusLine(colorYellow, "!!", format, args...) }

func info(format string, args ...any) {
	fmt.Printf("   %s\n", fmt.Sprintf(format, args...))
}
