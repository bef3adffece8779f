// Package mcp provides an MCP (Model Context Protocol) server adapter for
// wpask. It lets AI assistants like Claude query a WordPress site's content
// through the same driving ports the CLI uses.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
