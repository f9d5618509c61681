// Package apperrors defines the error kinds shared across the core
// subsystems (§7 of the specification this module implements).
package apperrors

import "errors"

// Sentinel errors identifying the kinds of failure the pipeline and its
// collaborators distinguish when deciding how to react (log-and-drop,
// log-and-continue, user-facing reply, fatal startup).
var (
	// ErrValidation marks a malformed inbound message or missing required
	// field. The pipeline logs and drops the message; no reply is sent.
	ErrValidation = errors.New("validation error")

	// ErrConfig marks a required setting missing at startup. Fatal.
	ErrConfig = errors.New("config error")

	// ErrTransientExternal marks an HTTP timeout, 5xx, or network failure.
	ErrTransientExternal = errors.New("transient external error")

	// ErrRateLimited marks an upstream 429. Treated as transient by callers.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuth marks a 401/403 from an upstream dependency.
	ErrAuth = errors.New("auth error")

	// ErrCache marks a failure inside the cache layer. Callers must swallow
	// this and treat it as a miss/fail, never propagate it further.
	ErrCache = errors.New("cache error")

	// ErrReplayMiss marks that the replayer found no recorded call matching
	// an outgoing request.
	ErrReplayMiss = errors.New("replay miss: no recorded call matches request")

	// ErrSpamDetected is not a failure; it signals the pipeline to stop
	// dispatching further handlers because the message was banned.
	ErrSpamDetected = errors.New("spam detected, pipeline terminated")

	// ErrInvalidKey is returned by key generators that received input they
	// cannot turn into a stable cache key (e.g. IdentityKeyGenerator given a
	// non-string).
	ErrInvalidKey = errors.New("invalid cache key input")
)
