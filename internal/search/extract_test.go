package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealfinder-cli/pkg/jina"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"dollar sign", "Get it now for $49.99 with free shipping", "$49.99"},
		{"thousands", "Was $1,299.00 yesterday", "$1,299.00"},
		{"usd suffix", "Costs 89.99 USD at checkout", "89.99 USD"},
		{"price label", "Price: 45", "Price: 45"},
		{"no price", "A lovely product with no price", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPrice(tt.text))
		})
	}
}

func TestExtractAvailability(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Currently In Stock and ships today", "in stock"},
		{"Sorry, out of stock", "out of stock"},
		{"Only a few left!", "few left"},
		{"No stock wording here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractAvailability(tt.text))
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.amazon.com/dp/B01", "amazon.com"},
		{"https://shop.example.org/item", "shop.example.org"},
		{"not a url", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDomain(tt.url))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
	long := strings.Repeat("a", 250)
	got := truncate(long, 200)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestOfferFromSearchResult(t *testing.T) {
	result := jina.SearchResult{
		Title:   "Wireless Headphones",
		URL:     "https://www.bestbuy.com/headphones",
		Content: "Great sound for $79.99, in stock now. " + strings.Repeat("x", 200),
	}

	offer := offerFromSearchResult(result)
	require.NotNil(t, offer)
	assert.Equal(t, "Wireless Headphones", offer.Title)
	assert.Equal(t, "$79.99", offer.Price)
	assert.Equal(t, "bestbuy.com", offer.Source)
	assert.True(t, strings.HasSuffix(offer.Description, "..."))
	assert.LessOrEqual(t, len(offer.Description), 203)
}

func TestOfferFromSearchResult_MissingFields(t *testing.T) {
	assert.Nil(t, offerFromSearchResult(jina.SearchResult{URL: "https://x.example"}))
	assert.Nil(t, offerFromSearchResult(jina.SearchResult{Title: "No URL"}))
}
