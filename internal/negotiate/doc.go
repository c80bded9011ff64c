// Package negotiate resolves how a URL can actually be fetched.
//
// Given a URL and an optional credential, it trials a fixed ordered list of
// credential-delivery strategies (bearer header, query token, API-key
// header, cookie, then anonymous), probing the URL once per strategy and
// stopping at the first that works. Every trial is recorded in an
// append-only attempt log; when nothing works, that log is the caller's only
// window into why an arbitrary origin said no.
//
// Strategies run strictly sequentially. The order is a contract: it must
// match the attempt log, and probing a rate-limited origin in parallel burns
// quota for no benefit.
package negotiate
