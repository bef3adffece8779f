package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

func TestSearchToolSchema(t *testing.T) {
	schema := searchToolSchema()

	assert.Equal(t, SearchToolName, schema.Name)
	assert.Contains(t, schema.Parameters, "query")
	assert.Contains(t, schema.Parameters, "maxResults")
	assert.Equal(t, []string{"query"}, schema.Required)
}

func TestParseToolArgs(t *testing.T) {
	q := domain.NewQuery("user question", 7, 20)

	tests := []struct {
		name      string
		raw       string
		wantQuery string
		wantMax   int
	}{
		{"full args", `{"query":"Think 25","maxResults":5}`, "Think 25", 5},
		{"missing maxResults", `{"query":"Think 25"}`, "Think 25", 7},
		{"empty payload", ``, "user question", 7},
		{"empty object", `{}`, "user question", 7},
		{"blank query", `{"query":"  "}`, "user question", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseToolArgs(tt.raw, q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, args.Query)
			assert.Equal(t, tt.wantMax, args.MaxResults)
		})
	}
}

func TestParseToolArgs_MalformedJSON(t *testing.T) {
	_, err := parseToolArgs(`{broken`, domain.NewQuery("q", 0, 20))

	require.Error(t, err)
	assert.Equal(t, domain.KindBackendProtocolError, domain.KindOf(err))
}

func TestFormatRecordsForModel(t *testing.T) {
	out := formatRecordsForModel([]domain.ContentRecord{whitePaperRecord})

	assert.Contains(t, out, "Result 1:")
	assert.Contains(t, out, whitePaperRecord.Title)
	assert.Contains(t, out, whitePaperRecord.URL)
	assert.Contains(t, out, whitePaperRecord.Author)
}

func TestFormatRecordsForModel_Empty(t *testing.T) {
	assert.Equal(t, "No content found.", formatRecordsForModel(nil))
}

func TestFormatRecordsForModel_TruncatesExcerpt(t *testing.T) {
	long := whitePaperRecord
	long.Excerpt = strings.Repeat("a", 300)

	out := formatRecordsForModel([]domain.ContentRecord{long})

	assert.Contains(t, out, strings.Repeat("a", excerptLimit)+"...")
	assert.NotContains(t, out, strings.Repeat("a", excerptLimit+1))
}

func TestFormatRecordsForModel_TruncatesOnRuneBoundary(t *testing.T) {
	long := whitePaperRecord
	long.Excerpt = strings.Repeat("日", 300)

	out := formatRecordsForModel([]domain.ContentRecord{long})

	assert.True(t, utf8.ValidString(out), "truncation must not split a multi-byte rune")
	assert.Contains(t, out, strings.Repeat("日", excerptLimit)+"...")
}

func TestTruncateExcerpt_ShortStringUntouched(t *testing.T) {
	assert.Equal(t, "héllo", truncateExcerpt("héllo", 5))
}
