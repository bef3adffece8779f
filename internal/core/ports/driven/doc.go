// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ContentSource: Searches the WordPress content endpoint
//   - ChatBackend: Opens streaming turns against a model backend
//
// Both are stateless from the core's point of view: the core owns all
// per-query state (transcript, registry cursor) and the adapters own only
// connection-level concerns (auth, retry, rate limiting).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
