// Package auth owns the TickTick OAuth2 credential lifecycle: acquisition,
// persistence, expiry tracking, and refresh.
//
// A single TokenRecord is persisted as pretty-printed JSON at
// ~/.ticktick-mcp/tokens.json (one record per installation). The Manager
// resolves the current access token from an ordered chain of sources:
//
//  1. Directly injected token (TICKTICK_ACCESS_TOKEN), unknown expiry,
//     never proactively refreshed
//  2. Persisted record, refreshed when within 60 seconds of expiry
//  3. One-time authorization code (TICKTICK_AUTH_CODE) for headless
//     first-run bootstrap
//  4. Interactive browser flow with a local callback listener
//
// A failure inside a source falls through to the next one; when the chain
// is exhausted an AuthError with remediation steps is returned.
//
// The proactive expiry check and the reactive recovery after an
// unauthorized API response both converge on the same refresh-and-persist
// primitive, so exactly one code path mutates on-disk credential state.
// Concurrent refreshes are tolerated rather than serialized: each is
// independently valid against the provider and the last persisted record
// wins.
package auth
