// Package api serves the platform's HTTP route surface.
//
// The authentication routes under /api/v1/auth carry the real flows:
// credential verification, token issuance and refresh, two-factor setup
// and activation, and the password-reset round trip. The domain module
// routes (jobs, finance, energy, carbon, ai, policy, users, analytics)
// return their published payload shapes while the corresponding services
// are built out behind them.
//
// Handlers write plain JSON and know nothing about accessibility
// enrichment or analytics; the transport pipeline applies both on the
// way out.
package api
