// Package config loads and validates imready.json configuration files.
//
// Configuration drives the check and serve commands: which attribute
// prefix to honor, which tags to scan for, how long a batch may take,
// and where the HTTP server listens. Every field has a sensible default
// so an empty or missing file still yields a working setup.
package config
