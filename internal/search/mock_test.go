package search

import (
	"context"

	"github.com/sells-group/dealfinder-cli/pkg/jina"
	"github.com/sells-group/dealfinder-cli/pkg/perplexity"
)

// mockJinaClient implements jina.Client for testing.
type mockJinaClient struct {
	searchResp  *jina.SearchResponse
	searchErr   error
	readResp    *jina.ReadResponse
	readErr     error
	searchCalls int
	readCalls   int
}

func (m *mockJinaClient) Search(ctx context.Context, query string) (*jina.SearchResponse, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResp == nil {
		return &jina.SearchResponse{}, nil
	}
	return m.searchResp, nil
}

func (m *mockJinaClient) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	m.readCalls++
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.readResp == nil {
		return &jina.ReadResponse{}, nil
	}
	return m.readResp, nil
}

// mockPerplexityClient implements perplexity.Client for testing.
type mockPerplexityClient struct {
	resp  *perplexity.ChatCompletionResponse
	err   error
	calls int
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}
