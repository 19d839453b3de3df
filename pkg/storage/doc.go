// Package storage defines the user persistence contract shared by the
// storage adapters, along with sentinel errors and tenant context
// helpers.
//
// Storage adapters (memory, postgres) implement the UserStore interface.
// This package contains only shared types and helpers, not the adapters
// themselves.
package storage
