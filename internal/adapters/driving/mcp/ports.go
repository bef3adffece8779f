package mcp

import (
	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions through the model orchestration loop.
	Ask driving.AskService

	// Search queries site content directly.
	Search driving.SearchService

	// SiteURL is the WordPress endpoint served, exposed as a resource.
	SiteURL string

	// Models is the backend priority list, exposed as a resource.
	Models []string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
