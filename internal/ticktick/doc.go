// Package ticktick provides a client for the TickTick Open API.
//
// This package wraps the REST API at https://api.ticktick.com/open/v1 and
// provides functionality for:
//   - Managing projects (list, get, get with data, create, update, delete)
//   - Managing tasks (get, create, update, complete, delete, batch create)
//   - Resolving the built-in Inbox project, which the API does not list
//
// Every operation goes through a single authenticated request primitive.
// The client holds a credential source (the auth.Manager) and lazily
// resolves the access token on first use. When the API answers with 401
// Unauthorized, the client forces exactly one token refresh and reissues
// the identical request once; any other non-success status, and a 401 that
// survives the single retry, surfaces as an *APIError. The API has no
// idempotency-key mechanism, so a second blind retry could duplicate a
// create; one controlled attempt is the ceiling.
package ticktick
