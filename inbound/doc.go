// Package inbound implements the receiving side of webmention.
//
// A Receiver validates the (source, target) pair before any outbound fetch,
// verifies that source links to target and only then hands the mention to
// the caller's Handler. Rejections are reported as go-errors envelopes
// whose Code is the HTTP status to reply with.
package inbound
