// Package agent runs the conversational shopping loop: classify the user's
// intent, run the matching pipeline, and persist the thread's state.
package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/compare"
	"github.com/sells-group/dealfinder-cli/internal/config"
	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/internal/search"
	"github.com/sells-group/dealfinder-cli/internal/session"
	"github.com/sells-group/dealfinder-cli/pkg/anthropic"
)

// lockStripes bounds lock memory regardless of thread count. Threads
// hashing to the same stripe serialize with each other, which is harmless.
const lockStripes = 16

// Agent orchestrates intent classification, search, comparison, and
// response generation for chat threads.
type Agent struct {
	cfg        *config.Config
	anthropic  anthropic.Client
	searcher   search.Searcher
	comparator *compare.Comparator
	sessions   session.Store

	locks [lockStripes]sync.Mutex
}

// New creates an Agent. The anthropic client may be nil, in which case
// classification and response generation degrade to rule-based fallbacks.
func New(cfg *config.Config, aiClient anthropic.Client, searcher search.Searcher, comparator *compare.Comparator, sessions session.Store) *Agent {
	return &Agent{
		cfg:        cfg,
		anthropic:  aiClient,
		searcher:   searcher,
		comparator: comparator,
		sessions:   sessions,
	}
}

// lock serializes chat turns per thread so concurrent messages on one
// thread cannot interleave session reads and writes.
func (a *Agent) lock(threadID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(threadID))
	return &a.locks[h.Sum32()%lockStripes]
}

// Chat processes one user message on a thread and returns the assistant's
// reply. An empty threadID starts a new thread.
func (a *Agent) Chat(ctx context.Context, threadID, message string) (*model.ChatResult, error) {
	if threadID == "" {
		threadID = uuid.New().String()
	}

	mu := a.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	log := zap.L().With(zap.String("thread_id", threadID))
	start := time.Now()

	state, err := a.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, eris.Wrap(err, "agent: load session")
	}
	if state == nil {
		state = &model.SessionState{
			ThreadID: threadID,
			Context:  model.NewContext(a.cfg.Chat.MaxTurns),
		}
	}

	state.Context.Add(model.Turn{
		Role:      model.RoleUser,
		Content:   message,
		Timestamp: time.Now().UTC(),
	})

	classifyStart := time.Now()
	classification := a.classify(ctx, state.Context.Render(), message)
	log.Info("agent: intent classified",
		zap.String("intent", string(classification.Intent)),
		zap.String("reasoning", classification.Reasoning),
		zap.Int64("duration_ms", time.Since(classifyStart).Milliseconds()),
	)

	var result *model.ChatResult
	switch classification.Intent {
	case model.IntentSearch:
		result, err = a.handleSearch(ctx, state, message)
	case model.IntentExtractURL:
		result, err = a.handleExtract(ctx, state, message)
	default:
		result, err = a.handleChat(ctx, state)
	}
	if err != nil {
		return nil, err
	}

	state.Context.Add(model.Turn{
		Role:      model.RoleAssistant,
		Content:   result.Response,
		Timestamp: time.Now().UTC(),
		Citations: result.Citations,
	})
	state.Citations = result.Citations
	state.UpdatedAt = time.Now().UTC()

	if err := a.sessions.Put(ctx, state); err != nil {
		return nil, eris.Wrap(err, "agent: save session")
	}

	log.Info("agent: turn complete",
		zap.String("intent", string(classification.Intent)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// handleSearch runs the search and comparison pipeline for a product query.
func (a *Agent) handleSearch(ctx context.Context, state *model.SessionState, message string) (*model.ChatResult, error) {
	searchStart := time.Now()
	offers, err := a.searcher.SearchProducts(ctx, message)
	if err != nil {
		return nil, eris.Wrap(err, "agent: search products")
	}
	zap.L().Info("agent: search complete",
		zap.Int("offers", len(offers)),
		zap.Int64("duration_ms", time.Since(searchStart).Milliseconds()),
	)

	if len(offers) == 0 {
		return &model.ChatResult{
			ThreadID: state.ThreadID,
			Response: fmt.Sprintf("I couldn't find any offers for %q. Try rephrasing, or give me a more specific product name.", message),
		}, nil
	}

	// A comparison failure is absorbed: the reply still lists the offers,
	// just without a recommendation.
	cmp, err := a.comparator.Compare(offers)
	if err != nil {
		zap.L().Error("agent: comparison failed", zap.Error(err))
		cmp = nil
	}

	state.SearchResults = offers
	state.Comparison = cmp

	offline := fmt.Sprintf("I found %d offers.", len(offers))
	if cmp != nil {
		offline = searchFallbackResponse(cmp)
	}

	prompt := fmt.Sprintf(searchResponsePrompt,
		state.Context.Render(),
		formatOffers(offers),
		formatComparison(cmp),
	)
	response, err := a.generate(ctx, prompt, offline)
	if err != nil {
		return nil, err
	}

	return &model.ChatResult{
		ThreadID:      state.ThreadID,
		Response:      response,
		Citations:     extractCitations(response, offers),
		SearchResults: offers,
		Comparison:    cmp,
	}, nil
}

// handleExtract pulls an offer out of the URL in the message.
func (a *Agent) handleExtract(ctx context.Context, state *model.SessionState, message string) (*model.ChatResult, error) {
	pageURL, err := firstURL(message)
	if err != nil {
		// Classification said URL but none parses; treat as chat.
		return a.handleChat(ctx, state)
	}

	// A fetch failure is absorbed like an empty search: the turn still
	// completes with an apology instead of aborting.
	offer, err := a.searcher.ExtractFromURL(ctx, pageURL)
	if err != nil {
		zap.L().Warn("agent: extract failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		offer = nil
	}
	if offer == nil {
		return &model.ChatResult{
			ThreadID: state.ThreadID,
			Response: fmt.Sprintf("I couldn't extract product details from %s. The page may be blocked or not a product page.", pageURL),
		}, nil
	}

	state.SearchResults = []model.Offer{*offer}
	state.Comparison = nil

	prompt := fmt.Sprintf(extractResponsePrompt,
		state.Context.Render(),
		formatOffers([]model.Offer{*offer}),
	)
	response, err := a.generate(ctx, prompt, extractFallbackResponse(offer))
	if err != nil {
		return nil, err
	}

	return &model.ChatResult{
		ThreadID:      state.ThreadID,
		Response:      response,
		Citations:     extractCitations(response, []model.Offer{*offer}),
		SearchResults: []model.Offer{*offer},
	}, nil
}

// handleChat produces a conversational reply with no search.
func (a *Agent) handleChat(ctx context.Context, state *model.SessionState) (*model.ChatResult, error) {
	prompt := fmt.Sprintf(chatResponsePrompt, state.Context.Render())
	response, err := a.generate(ctx, prompt, chatFallbackResponse)
	if err != nil {
		return nil, err
	}

	return &model.ChatResult{
		ThreadID:  state.ThreadID,
		Response:  response,
		Citations: extractCitations(response, nil),
	}, nil
}

// ClearThread removes a thread's stored state.
func (a *Agent) ClearThread(ctx context.Context, threadID string) error {
	mu := a.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	if err := a.sessions.Delete(ctx, threadID); err != nil {
		return eris.Wrapf(err, "agent: clear thread %s", threadID)
	}
	return nil
}

// History returns the stored conversation turns for a thread, oldest first.
// The result is a snapshot: it takes the thread lock and copies the turns
// so an in-flight Chat on the same thread cannot race the read.
func (a *Agent) History(ctx context.Context, threadID string) ([]model.Turn, error) {
	mu := a.lock(threadID)
	mu.Lock()
	defer mu.Unlock()

	state, err := a.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, eris.Wrapf(err, "agent: load thread %s", threadID)
	}
	if state == nil || state.Context == nil {
		return nil, nil
	}
	turns := make([]model.Turn, len(state.Context.Turns))
	copy(turns, state.Context.Turns)
	return turns, nil
}
