package mcp

import (
	"context"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService. It replays
// a scripted event sequence and returns err.
type mockAskService struct {
	events []domain.StreamEvent
	err    error
}

func (m *mockAskService) Ask(
	_ context.Context,
	_ domain.Query,
	emit domain.EventSink,
) error {
	for _, ev := range m.events {
		emit(ev)
	}
	return m.err
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	records []domain.ContentRecord
	err     error

	gotQuery string
	gotLimit int
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	limit int,
) ([]domain.ContentRecord, error) {
	m.gotQuery = query
	m.gotLimit = limit
	return m.records, m.err
}
