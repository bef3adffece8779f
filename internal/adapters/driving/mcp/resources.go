package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for wpask resources.
	uriScheme = "wpask://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource describing the configured site and backends.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "site",
		Name:        "site",
		Description: "The WordPress site served and the model backend priority list",
		MIMEType:    "application/json",
	}, s.handleSiteResource)

	// Template for content matching a search query.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "content/{query}",
		Name:        "content",
		Description: "Site content matching a search query",
		MIMEType:    "application/json",
	}, s.handleContentResource)
}

// handleSiteResource returns the configured site URL and backend list.
func (s *Server) handleSiteResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := struct {
		SiteURL string   `json:"site_url"`
		Models  []string `json:"models"`
	}{
		SiteURL: s.ports.SiteURL,
		Models:  s.ports.Models,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling site info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleContentResource returns content matching the query embedded in the
// URI.
func (s *Server) handleContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	query := extractQuery(req.Params.URI)
	if query == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Search.Search(ctx, query, domain.DefaultMaxResults)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}

	type recordInfo struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}

	infos := make([]recordInfo, len(records))
	for i, r := range records {
		infos[i] = recordInfo{
			ID:    r.ID,
			Title: r.Title,
			URL:   r.URL,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractQuery extracts the search query from a URI like
// wpask://content/{query}. The query segment is URL-escaped.
func extractQuery(uri string) string {
	const prefix = uriScheme + "content/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	raw := strings.TrimPrefix(uri, prefix)
	query, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return query
}
