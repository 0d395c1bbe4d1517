// Package instrumentation provides OpenTelemetry metrics, tracing, and audit
// logging for the ticktick-mcp server.
//
// # Overview
//
// The package is built around a Provider that owns the OpenTelemetry meter
// and tracer providers and hands out a Metrics recorder. Metrics can be
// exported via Prometheus (default), OTLP, or stdout; traces via OTLP or
// stdout, and are disabled by default.
//
// # Metrics
//
// The recorder exposes counters and histograms for the concerns of this
// server:
//
//   - http_requests_total / http_request_duration_seconds
//   - ticktick_api_operations_total / ticktick_api_operation_duration_seconds
//   - oauth_token_refresh_total / oauth_token_refresh_duration_seconds
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//   - active_sessions
//
// A zero-value Metrics is a safe no-op, so disabled instrumentation costs a
// nil check per call site.
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordAPIOperation(ctx, "GET /project", "success", time.Since(start))
//	recorder.RecordTokenRefresh(ctx, "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "create_task", "success", time.Since(start))
//
// # Audit logging
//
// AuditLogger records every tool invocation with its outcome, duration, and
// trace context. Token material never appears in audit records.
package instrumentation
