package mcp

import (
	"context"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

func readRequest(uri string) *sdk.ReadResourceRequest {
	return &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleSiteResource(t *testing.T) {
	ports := &Ports{
		Ask:     &mockAskService{},
		Search:  &mockSearchService{},
		SiteURL: "https://blog.example.com/wp-json/wp/v2",
		Models:  []string{"z-ai/glm-4.5-air:free", "qwen/qwen3-coder:free"},
	}
	server, err := NewServer(ports)
	require.NoError(t, err)

	result, err := server.handleSiteResource(context.Background(), readRequest(uriScheme+"site"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, "https://blog.example.com/wp-json/wp/v2")
	assert.Contains(t, result.Contents[0].Text, "z-ai/glm-4.5-air:free")
}

func TestServer_handleContentResource(t *testing.T) {
	t.Run("returns matching records", func(t *testing.T) {
		search := &mockSearchService{
			records: []domain.ContentRecord{
				{ID: "3", Title: "Hello World", URL: "https://blog.example.com/hello"},
			},
		}
		server := newTestServer(t, nil, search)

		result, err := server.handleContentResource(
			context.Background(),
			readRequest(uriScheme+"content/hello%20world"),
		)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "Hello World")
		assert.Equal(t, "hello world", search.gotQuery)
	})

	t.Run("empty query segment is not found", func(t *testing.T) {
		server := newTestServer(t, nil, nil)

		_, err := server.handleContentResource(
			context.Background(),
			readRequest(uriScheme+"content/"),
		)

		assert.Error(t, err)
	})
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"plain query", uriScheme + "content/golang", "golang"},
		{"escaped spaces", uriScheme + "content/go%20modules", "go modules"},
		{"wrong prefix", uriScheme + "documents/abc", ""},
		{"no segment", uriScheme + "content/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractQuery(tt.uri))
		})
	}
}
