// Package progress models the status stream emitted by a pipeline run and
// fans it out, without blocking emitters, to pluggable sinks (structured
// logs, Prometheus collectors, the in-memory run store).
package progress
