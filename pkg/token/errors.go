package token

import "errors"

// Sentinel errors for token verification. ErrInvalidSignature, ErrExpired,
// and ErrTypeMismatch are all surfaced to HTTP callers as a single generic
// unauthenticated outcome; they stay distinct here so internal logging can
// tell them apart.
var (
	// ErrInvalidSignature is returned when the signature does not verify
	// or the token fails structural validation.
	ErrInvalidSignature = errors.New("token signature invalid")

	// ErrExpired is returned when the exp claim is in the past relative
	// to the codec's clock.
	ErrExpired = errors.New("token expired")

	// ErrTypeMismatch is returned when the type claim does not match the
	// type the call site expects.
	ErrTypeMismatch = errors.New("unexpected token type")

	// ErrMalformed is returned for input that is not a compact token at
	// all. This indicates a programmer error on the caller's side.
	ErrMalformed = errors.New("malformed token")
)
