/*
Package observability provides tools for monitoring the flowchart service.

It exposes a Recorder hook that the Manager calls after every operation, a
Prometheus-backed implementation of it, and the HTTP handler that serves the
collected metrics.
*/
package observability
