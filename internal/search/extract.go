package search

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/jina"
)

// pricePatterns are tried in order against page or snippet text.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\d[\d,]*(?:\.\d{2})?`),
	regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d{2})?\s*(?:USD|dollars?)`),
	regexp.MustCompile(`(?i)Price:\s*\$?\d[\d,]*(?:\.\d{2})?`),
}

// availabilityPhrases are matched case-insensitively against page text.
var availabilityPhrases = []string{
	"in stock", "out of stock", "ready to ship", "limited stock",
	"few left", "unavailable", "available",
}

// extractPrice returns the first price-looking token in text, or "".
func extractPrice(text string) string {
	for _, p := range pricePatterns {
		if match := p.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// extractAvailability returns the first stock phrase found in text, or "".
func extractAvailability(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range availabilityPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

// extractDomain returns the host of a URL with any www. prefix stripped.
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// truncate shortens s to limit characters, appending an ellipsis when
// anything was cut.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// offerFromSearchResult converts a search result into an offer. Results
// without a title or URL are discarded.
func offerFromSearchResult(result jina.SearchResult) *model.Offer {
	if result.Title == "" || result.URL == "" {
		return nil
	}

	return &model.Offer{
		Title:       result.Title,
		Price:       extractPrice(result.Content),
		URL:         result.URL,
		Source:      extractDomain(result.URL),
		Description: truncate(result.Content, 200),
	}
}
