// Package services implements the core orchestration logic for wpask.
//
// The central piece is the tool-calling Session (session.go): it drives one
// user query through the active model backend, resolves search tool
// invocations against the content source, and emits ordered stream events.
// Supporting pieces are the backend Registry (registry.go), the event relay
// (relay.go) and the direct SearchService (search.go).
//
// Services depend only on domain and the driven ports; adapters are
// injected at construction.
package services
