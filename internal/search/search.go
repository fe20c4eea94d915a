// Package search finds product offers on the web and extracts offers from
// individual product pages.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealfinder-cli/internal/config"
	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/jina"
	"github.com/sells-group/dealfinder-cli/pkg/perplexity"
)

// queryEnhancement is appended to user queries to bias results toward
// shopping pages.
const queryEnhancement = " buy online price comparison shopping deals"

// Searcher finds offers for a query and extracts offers from single pages.
type Searcher interface {
	// SearchProducts returns offers for a product query. It degrades to an
	// empty slice on backend failures; errors are reserved for context
	// cancellation.
	SearchProducts(ctx context.Context, query string) ([]model.Offer, error)
	// ExtractFromURL fetches one page and extracts an offer from it.
	// Returns nil when the page yields no usable offer.
	ExtractFromURL(ctx context.Context, pageURL string) (*model.Offer, error)
}

// WebSearcher implements Searcher using Jina Search with a Perplexity
// fallback.
type WebSearcher struct {
	jina       jina.Client
	perplexity perplexity.Client
	cfg        config.SearchConfig

	jinaBreaker *backendBreaker
	pplxBreaker *backendBreaker
}

// NewWebSearcher creates a WebSearcher. The perplexity client is optional;
// when nil the fallback tier is skipped.
func NewWebSearcher(jinaClient jina.Client, pplxClient perplexity.Client, cfg config.SearchConfig) *WebSearcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	return &WebSearcher{
		jina:        jinaClient,
		perplexity:  pplxClient,
		cfg:         cfg,
		jinaBreaker: newBackendBreaker("jina"),
		pplxBreaker: newBackendBreaker("perplexity"),
	}
}

// SearchProducts runs the search tiers in order: Jina Search, Perplexity,
// and (when enabled) canned sample offers for offline development.
func (s *WebSearcher) SearchProducts(ctx context.Context, query string) ([]model.Offer, error) {
	log := zap.L().With(zap.String("query", query))

	var offers []model.Offer
	err := s.jinaBreaker.call(func() error {
		var jinaErr error
		offers, jinaErr = s.searchJina(ctx, query)
		return jinaErr
	})
	if err != nil {
		log.Warn("search: jina tier failed", zap.Error(err))
	}

	if len(offers) == 0 && s.perplexity != nil {
		err = s.pplxBreaker.call(func() error {
			var pplxErr error
			offers, pplxErr = s.searchPerplexity(ctx, query)
			return pplxErr
		})
		if err != nil {
			log.Warn("search: perplexity tier failed", zap.Error(err))
		}
	}

	if len(offers) == 0 && s.cfg.SampleFallback {
		offers = sampleOffers(query)
		log.Info("search: using sample offers", zap.Int("count", len(offers)))
	}

	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "search: canceled")
	}

	if len(offers) > s.cfg.MaxResults {
		offers = offers[:s.cfg.MaxResults]
	}

	s.enrichOffers(ctx, offers)

	log.Info("search: complete", zap.Int("offers", len(offers)))
	return offers, nil
}

// searchJina queries Jina Search and converts results into offers.
func (s *WebSearcher) searchJina(ctx context.Context, query string) ([]model.Offer, error) {
	resp, err := s.jina.Search(ctx, query+queryEnhancement)
	if err != nil {
		return nil, eris.Wrap(err, "search: jina search")
	}

	var offers []model.Offer
	for _, result := range resp.Data {
		if offer := offerFromSearchResult(result); offer != nil {
			offers = append(offers, *offer)
		}
	}
	return offers, nil
}

// enrichOffers fetches pages for offers missing a price and fills in price
// and availability from the page content. Failures leave the offer as-is.
func (s *WebSearcher) enrichOffers(ctx context.Context, offers []model.Offer) {
	var toEnrich []int
	for i, o := range offers {
		if o.Price == "" && o.URL != "" {
			toEnrich = append(toEnrich, i)
		}
	}
	if len(toEnrich) == 0 {
		return
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for _, idx := range toEnrich {
		g.Go(func() error {
			resp, err := s.jina.Read(gCtx, offers[idx].URL)
			if err != nil {
				zap.L().Debug("search: enrich fetch failed",
					zap.String("url", offers[idx].URL),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			if price := extractPrice(resp.Data.Content); price != "" {
				offers[idx].Price = price
			}
			if avail := extractAvailability(resp.Data.Content); avail != "" {
				offers[idx].Availability = avail
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// ExtractFromURL fetches a single page via Jina Reader and builds an offer
// from its content.
func (s *WebSearcher) ExtractFromURL(ctx context.Context, pageURL string) (*model.Offer, error) {
	resp, err := s.jina.Read(ctx, pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "search: read page %s", pageURL)
	}

	title := strings.TrimSpace(resp.Data.Title)
	if title == "" {
		return nil, nil
	}

	description := strings.TrimSpace(resp.Data.Description)
	if description == "" {
		description = truncate(resp.Data.Content, 200)
	}

	return &model.Offer{
		Title:        title,
		Price:        extractPrice(resp.Data.Content),
		URL:          pageURL,
		Source:       extractDomain(pageURL),
		Description:  description,
		Availability: extractAvailability(resp.Data.Content),
	}, nil
}
