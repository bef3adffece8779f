// Package domain defines the core business entities for wpask.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Query: A single user question with its result bound
//   - ContentRecord: One piece of WordPress content returned by the source
//   - Transcript: The ordered conversation log for one query
//   - ToolInvocation: One backend-requested search and its resolved result
//   - BackendCandidate: One model identifier tried in priority order
//   - StreamEvent: One unit of the ordered output stream for a query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
