// Package logging provides structured logging utilities for the ticktick-mcp
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// The MCP stdio transport owns stdout, so all diagnostic output goes to
// stderr (or to a rotating log file when configured). Tokens are never
// logged directly; use SanitizeToken for any credential-adjacent value.
package logging
