// Package session keeps a client-side session alive.
//
// A session is the access/refresh credential pair held in a credstore.Store.
// Three components share the lifecycle:
//
//   - Refresher trades a refresh credential for a new access credential. It
//     never persists anything and never retries. Concurrent callers holding
//     the same refresh credential share one in-flight exchange.
//   - Guard is consulted before protected content renders. It classifies the
//     stored pair, refreshes when the access credential has lapsed but the
//     refresh credential is live, and otherwise ends the session.
//   - Authenticator is an http.RoundTripper that attaches the access
//     credential to outgoing requests and, on a 401, refreshes once and
//     resubmits the request.
//
// Ending a session always means the same three steps: both credentials are
// removed, the user is told the session expired, and the router is sent to
// the sign-in page.
package session
