/*
Package observability exposes pipeline counters through Prometheus.

A nil *Metrics is valid and records nothing, so components can take metrics as an optional
dependency without guarding every call site.
*/
package observability
