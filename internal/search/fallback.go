package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/perplexity"
)

// perplexitySearchPrompt asks the model for structured offers so the
// response can be parsed without scraping.
const perplexitySearchPrompt = `Find current online offers for the following product and respond with ONLY a JSON array, no other text. Each element: {"title": "...", "price": "$...", "url": "https://...", "source": "retailer domain", "description": "...", "availability": "..."}. Include at most %d offers.

Product: %s`

// searchPerplexity asks Perplexity for offers as JSON and parses them.
func (s *WebSearcher) searchPerplexity(ctx context.Context, query string) ([]model.Offer, error) {
	maxTokens := 1024
	resp, err := s.perplexity.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "user", Content: fmt.Sprintf(perplexitySearchPrompt, s.cfg.MaxResults, query)},
		},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: perplexity completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("search: perplexity returned no choices")
	}

	offers, err := parseOfferJSON(resp.Choices[0].Message.Content, resp.Citations)
	if err != nil {
		return nil, err
	}

	// Fill gaps the model left: source from URL.
	for i := range offers {
		if offers[i].Source == "" && offers[i].URL != "" {
			offers[i].Source = extractDomain(offers[i].URL)
		}
	}
	return offers, nil
}

// parseOfferJSON extracts the first JSON array embedded in text and
// unmarshals it into offers. An offer missing a URL takes the citation
// at its position when one exists. Offers still without a title or URL
// are dropped.
func parseOfferJSON(text string, citations []string) ([]model.Offer, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.New("search: no JSON array in response")
	}

	var raw []model.Offer
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "search: unmarshal offers")
	}

	for i := range raw {
		if raw[i].URL == "" && i < len(citations) {
			raw[i].URL = citations[i]
		}
	}

	offers := raw[:0]
	for _, o := range raw {
		if o.Title != "" && o.URL != "" {
			offers = append(offers, o)
		}
	}
	return offers, nil
}

// sampleOffers returns canned offers for offline development and demos.
func sampleOffers(query string) []model.Offer {
	return []model.Offer{
		{
			Title:       "Sample " + query + " Offer 1",
			Price:       "$99.99",
			URL:         "https://example.com/product1",
			Source:      "Example Store",
			Description: "High-quality " + query + " with great features",
		},
		{
			Title:       "Premium " + query + " Deal",
			Price:       "$149.99",
			URL:         "https://example.com/product2",
			Source:      "Premium Store",
			Description: "Premium " + query + " with warranty",
		},
	}
}
