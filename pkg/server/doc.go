// Package server exposes readiness checks over HTTP and WebSocket.
//
// The server accepts an HTML document, scans it for loadable resources,
// checks them against their remote sources, and reports the batch outcome.
// POST /check blocks until the batch settles and returns a summary;
// GET /ws streams every milestone event as it fires. GET /healthz and
// GET /metrics serve liveness and Prometheus scrapes.
package server
