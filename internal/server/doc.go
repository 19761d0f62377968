// Package server assembles taskboard from configuration and runs it.
//
// New opens the configured backend (a JSON file, optionally mirrored and
// schema-checked, or a SQLite database), then wires the repository, password
// hasher, token service, idempotency cache and login limiter into the API.
//
// The HTTP mux serves:
//
//	/health        liveness, always 200
//	/health/ready  200 when the document loads, 503 otherwise
//	/api/...       see package api
//
// Run blocks until its context is canceled and then shuts down within
// server.shutdown_timeout.
package server
