package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/agent"
	"github.com/sells-group/dealfinder-cli/internal/compare"
	"github.com/sells-group/dealfinder-cli/internal/search"
	"github.com/sells-group/dealfinder-cli/internal/session"
	anthropicpkg "github.com/sells-group/dealfinder-cli/pkg/anthropic"
	"github.com/sells-group/dealfinder-cli/pkg/jina"
	"github.com/sells-group/dealfinder-cli/pkg/perplexity"
)

// agentEnv holds the initialized session store and agent needed by the
// chat/ask/serve commands.
type agentEnv struct {
	Store session.Store
	Agent *agent.Agent
}

// Close releases resources held by the agent environment.
func (ae *agentEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

// initAgent sets up the session store, API clients, searcher, comparator,
// and agent. Callers should defer env.Close().
func initAgent(ctx context.Context) (*agentEnv, error) {
	if err := compare.ValidateConfig(cfg.Scorer); err != nil {
		return nil, err
	}

	st, err := session.New(ctx, cfg.Store, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate session store")
	}

	var anthropicClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("no anthropic key configured, using rule-based classification and responses")
	}

	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	if cfg.Jina.RateLimit > 0 {
		jinaOpts = append(jinaOpts, jina.WithRateLimit(cfg.Jina.RateLimit))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

	var perplexityClient perplexity.Client
	if cfg.Perplexity.Key != "" {
		perplexityClient = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	}

	searcher := search.NewWebSearcher(jinaClient, perplexityClient, cfg.Search)
	comparator := compare.NewComparator(compare.NewScorer(cfg.Scorer))

	return &agentEnv{
		Store: st,
		Agent: agent.New(cfg, anthropicClient, searcher, comparator, st),
	}, nil
}
