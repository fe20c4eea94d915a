package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealfinder-cli/internal/compare"
	"github.com/sells-group/dealfinder-cli/internal/config"
	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/internal/session"
	"github.com/sells-group/dealfinder-cli/pkg/anthropic"
)

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			ClassifyModel: "claude-haiku-4-5-20251001",
			RespondModel:  "claude-sonnet-4-5-20250929",
		},
		Chat:   config.ChatConfig{MaxTurns: 3, MaxTokens: 1000},
		Scorer: compare.DefaultScorerConfig(),
	}
}

func newTestAgent(t *testing.T, ai anthropic.Client, searcher *mockSearcher) (*Agent, session.Store) {
	t.Helper()
	cfg := testConfig()
	sessions := session.NewMemory(0)
	comparator := compare.NewComparator(compare.NewScorer(cfg.Scorer))
	return New(cfg, ai, searcher, comparator, sessions), sessions
}

func sampleSearchOffers() []model.Offer {
	return []model.Offer{
		{Title: "Laptop A", Price: "$899.00", URL: "https://www.amazon.com/a", Source: "amazon.com", Availability: "in stock"},
		{Title: "Laptop B", Price: "$999.00", URL: "https://www.newegg.com/b", Source: "newegg.com"},
	}
}

func TestAgent_Chat_SearchFlow(t *testing.T) {
	ai := &mockAnthropicClient{responses: []string{
		`{"intent": "search_products", "reasoning": "wants a laptop"}`,
		"Laptop A from amazon.com is your best bet at $899.00.",
	}}
	searcher := &mockSearcher{offers: sampleSearchOffers()}
	a, sessions := newTestAgent(t, ai, searcher)

	result, err := a.Chat(context.Background(), "thread-1", "find me a laptop")
	require.NoError(t, err)

	assert.Equal(t, "thread-1", result.ThreadID)
	assert.Equal(t, "Laptop A from amazon.com is your best bet at $899.00.", result.Response)
	assert.Len(t, result.SearchResults, 2)
	require.NotNil(t, result.Comparison)
	assert.Equal(t, "Laptop A", result.Comparison.BestOffer.Title)
	assert.Contains(t, result.Citations, "https://www.amazon.com/a")
	assert.Contains(t, result.Citations, "amazon.com")

	assert.Equal(t, 1, searcher.searchCalls)
	assert.Equal(t, []string{"find me a laptop"}, searcher.queries)

	// Both turns and the comparison were persisted.
	state, err := sessions.Get(context.Background(), "thread-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Context.Turns, 2)
	assert.NotNil(t, state.Comparison)
	assert.Equal(t, model.RoleAssistant, state.Context.Turns[1].Role)
}

func TestAgent_Chat_ClassifierUsesConfiguredModels(t *testing.T) {
	ai := &mockAnthropicClient{responses: []string{
		`{"intent": "search_products", "reasoning": "shopping"}`,
		"Here you go.",
	}}
	a, _ := newTestAgent(t, ai, &mockSearcher{offers: sampleSearchOffers()})

	_, err := a.Chat(context.Background(), "thread-1", "find a laptop")
	require.NoError(t, err)

	require.Len(t, ai.requests, 2)
	assert.Equal(t, "claude-haiku-4-5-20251001", ai.requests[0].Model)
	assert.Equal(t, "claude-sonnet-4-5-20250929", ai.requests[1].Model)
	assert.Equal(t, int64(1000), ai.requests[1].MaxTokens)
}

func TestAgent_Chat_RulesWhenClassifierFails(t *testing.T) {
	ai := &mockAnthropicClient{err: eris.New("api down")}
	searcher := &mockSearcher{offers: sampleSearchOffers()}
	a, _ := newTestAgent(t, ai, searcher)

	// Rule-based classification still routes to search; the generation
	// failure then surfaces to the caller.
	_, err := a.Chat(context.Background(), "thread-1", "find me a laptop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate response")
	assert.Equal(t, 1, searcher.searchCalls)
}

func TestAgent_Chat_OfflineSearchSummary(t *testing.T) {
	searcher := &mockSearcher{offers: sampleSearchOffers()}
	a, _ := newTestAgent(t, nil, searcher)

	result, err := a.Chat(context.Background(), "thread-1", "find me a laptop")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "The best one is Laptop A at $899.00 from amazon.com")
}

func TestAgent_Chat_ExtractFlow(t *testing.T) {
	searcher := &mockSearcher{extracted: &model.Offer{
		Title: "Keyboard", Price: "$129.99", URL: "https://example.com/kb",
		Source: "example.com", Availability: "in stock",
	}}
	a, _ := newTestAgent(t, nil, searcher)

	result, err := a.Chat(context.Background(), "thread-1", "what about https://example.com/kb")
	require.NoError(t, err)

	assert.Contains(t, result.Response, "Keyboard at $129.99")
	assert.Len(t, result.SearchResults, 1)
	assert.Nil(t, result.Comparison)
	assert.Contains(t, result.Citations, "https://example.com/kb")
	assert.Zero(t, searcher.searchCalls)
}

func TestAgent_Chat_ExtractFetchFailure(t *testing.T) {
	searcher := &mockSearcher{extractErr: eris.New("network down")}
	a, sessions := newTestAgent(t, nil, searcher)

	// A failed page fetch is absorbed: the turn completes with an apology
	// and the conversation is still persisted.
	result, err := a.Chat(context.Background(), "thread-1", "https://example.com/x")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "couldn't extract product details")

	state, err := sessions.Get(context.Background(), "thread-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Context.Turns, 2)
}

func TestAgent_Chat_ExtractNothingFound(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})

	result, err := a.Chat(context.Background(), "thread-1", "https://example.com/broken")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "couldn't extract product details")
}

func TestAgent_Chat_NoOffersFound(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})

	result, err := a.Chat(context.Background(), "thread-1", "find a left-handed widget")
	require.NoError(t, err)
	assert.Contains(t, result.Response, "couldn't find any offers")
	assert.Empty(t, result.SearchResults)
}

func TestAgent_Chat_DefaultChat(t *testing.T) {
	searcher := &mockSearcher{offers: sampleSearchOffers()}
	a, _ := newTestAgent(t, nil, searcher)

	result, err := a.Chat(context.Background(), "thread-1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, chatFallbackResponse, result.Response)
	assert.Zero(t, searcher.searchCalls)
}

func TestAgent_Chat_NewThreadGetsID(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})

	result, err := a.Chat(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ThreadID)
}

func TestAgent_Chat_WindowEviction(t *testing.T) {
	a, sessions := newTestAgent(t, nil, &mockSearcher{})
	a.cfg.Chat.MaxTurns = 1
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := a.Chat(ctx, "thread-1", "hello again")
		require.NoError(t, err)
	}

	state, err := sessions.Get(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Context.Turns, 2, "window holds one exchange")
	assert.Equal(t, model.RoleUser, state.Context.Turns[0].Role)
}

func TestAgent_ClearThread(t *testing.T) {
	a, sessions := newTestAgent(t, nil, &mockSearcher{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "thread-1", "hello")
	require.NoError(t, err)
	require.NoError(t, a.ClearThread(ctx, "thread-1"))

	state, err := sessions.Get(ctx, "thread-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestAgent_History_ConcurrentWithChat(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "thread-1", "hello")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, chatErr := a.Chat(ctx, "thread-1", "hello again")
			assert.NoError(t, chatErr)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			turns, histErr := a.History(ctx, "thread-1")
			assert.NoError(t, histErr)
			assert.NotEmpty(t, turns)
		}
	}()
	wg.Wait()
}

func TestAgent_History_ReturnsSnapshot(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "thread-1", "hello")
	require.NoError(t, err)

	turns, err := a.History(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	// Later chat turns do not alter an already-returned history.
	_, err = a.Chat(ctx, "thread-1", "second message")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)
}

func TestAgent_History(t *testing.T) {
	a, _ := newTestAgent(t, nil, &mockSearcher{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "thread-1", "hello")
	require.NoError(t, err)

	turns, err := a.History(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)

	turns, err = a.History(ctx, "no-such-thread")
	require.NoError(t, err)
	assert.Nil(t, turns)
}
