// Package common provides shared plumbing for the MCP tool packages:
// argument extraction helpers and the instrumented handler wrapper that
// records metrics and audit logs around every tool invocation.
package common
