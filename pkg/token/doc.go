// Package token implements the signed-token lifecycle for the platform:
// a codec that encodes and decodes HMAC-signed compact tokens, an issuer
// that mints access, refresh, and password-reset tokens with distinct
// lifetimes, and a verifier that enforces signature, expiry, and token-type
// expectations.
//
// Sessions are stateless: a token's validity is determined purely by its
// signature and expiry at verification time. The secret and algorithm are
// process-wide configuration, loaded once at startup and treated as
// immutable afterwards, so all types in this package are safe for
// unsynchronized concurrent use.
package token
