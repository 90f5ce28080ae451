// Package sinks provides progress.Sink implementations: structured logging,
// Prometheus collectors, and the in-memory run store backing the status API.
package sinks
