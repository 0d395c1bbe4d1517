// Package server holds the runtime context shared by the MCP tools and the
// sidecar HTTP servers.
//
// ServerContext bundles the TickTick client, the OAuth credential manager,
// the metrics recorder, and the audit logger so tool registration only needs
// a single handle. MetricsServer exposes Prometheus metrics and health
// probes on a dedicated port, separate from the MCP transport.
package server
