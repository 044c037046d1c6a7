package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to envelope codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Upstream platform failures. The wrapped message carries the upstream errcode/errmsg.
	ErrUpstreamAuth = errors.New("upstream access token rejected")
	ErrUpstreamMint = errors.New("upstream ticket creation failed")
	ErrUpstream     = errors.New("upstream request failed")
)
