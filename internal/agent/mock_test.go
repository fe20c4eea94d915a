package agent

import (
	"context"

	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/anthropic"
)

// mockAnthropicClient returns scripted responses in order, then repeats the
// last one.
type mockAnthropicClient struct {
	responses []string
	err       error
	requests  []anthropic.MessageRequest
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.requests) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return textResponse(m.responses[idx]), nil
}

// mockSearcher implements search.Searcher.
type mockSearcher struct {
	offers      []model.Offer
	searchErr   error
	extracted   *model.Offer
	extractErr  error
	searchCalls int
	queries     []string
}

func (m *mockSearcher) SearchProducts(ctx context.Context, query string) ([]model.Offer, error) {
	m.searchCalls++
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.offers, nil
}

func (m *mockSearcher) ExtractFromURL(ctx context.Context, pageURL string) (*model.Offer, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.extracted, nil
}
