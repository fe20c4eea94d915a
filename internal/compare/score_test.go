package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dealfinder-cli/internal/model"
)

func TestExtractNumericPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		expected float64
	}{
		{"dollar prefix", "$99.99", 99.99},
		{"plain number", "200", 200},
		{"thousand separator", "$1,299.00", 1299},
		{"embedded in text", "Price: $45.50 today only", 45.50},
		{"unparseable", "Contact for price", 0},
		{"empty", "", 0},
		{"currency suffix", "149.99 USD", 149.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ExtractNumericPrice(tt.price), 0.001)
		})
	}
}

func TestExtractNumericPrice_Idempotent(t *testing.T) {
	for _, price := range []string{"$99.99", "1,234", "no price here"} {
		first := ExtractNumericPrice(price)
		second := ExtractNumericPrice(price)
		assert.Equal(t, first, second)
	}
}

func TestScorer_PriceSubScore(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	tests := []struct {
		name     string
		offer    model.Offer
		expected float64
	}{
		// Unknown source always contributes 0.5 * 20 = 10.
		{"cheap item", model.Offer{Price: "$100", Source: "x"}, (1-0.1)*40 + 10},
		{"at reference", model.Offer{Price: "$1000", Source: "x"}, 0 + 10},
		{"above reference clamps", model.Offer{Price: "$5000", Source: "x"}, 0 + 10},
		{"unparseable price", model.Offer{Price: "Call us", Source: "x"}, 10},
		{"no price", model.Offer{Source: "x"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Score(tt.offer), 0.001)
		})
	}
}

func TestScorer_SourceScore(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	tests := []struct {
		source   string
		expected float64
	}{
		{"amazon.com", 1.0},
		{"www.BestBuy.com", 1.0},
		{"ebay.com", 0.7},
		{"myshop.example", 0.5},
		{"", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.SourceScore(tt.source), 0.001)
		})
	}
}

func TestScorer_DescriptionScore(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	long := "This product comes with a full manufacturer warranty and free shipping on every order, backed by responsive support."
	assert.Greater(t, len(long), 100)

	tests := []struct {
		name     string
		desc     string
		expected float64
	}{
		{"absent", "", 0},
		{"short no keywords", "A gadget.", 0.1},
		{"medium with keyword", "Ships fast and includes a full one year warranty with easy returns.", 0.2 + 0.1},
		{"long with two keywords", long, 0.3 + 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.descriptionScore(tt.desc), 0.001)
		})
	}
}

func TestScorer_DescriptionScoreAllKeywords(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	// Length tier 0.3 plus all six keywords at 0.1 each.
	desc := "Long description over one hundred characters: warranty guarantee free shipping fast delivery authentic genuine product."
	assert.Greater(t, len(desc), 100)
	assert.InDelta(t, 0.9, s.descriptionScore(desc), 0.001)
}

func TestScorer_AvailabilityScore(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	tests := []struct {
		avail    string
		expected float64
	}{
		{"In Stock", 1.0},
		{"Ready to ship", 1.0},
		{"Limited stock", 0.7},
		{"Only a few left!", 0.7},
		{"Out of stock", 0.0},
		{"Check back soon", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.avail, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.availabilityScore(tt.avail), 0.001)
		})
	}
}

func TestScorer_RatingSubScore(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())

	rating := 4.5
	offer := model.Offer{Source: "x", Rating: &rating}
	// 0.5*20 source + (4.5/5)*10 rating.
	assert.InDelta(t, 10+9, s.Score(offer), 0.001)

	over := 7.5
	offer.Rating = &over
	// Rating ratio clamps at 1.0.
	assert.InDelta(t, 10+10, s.Score(offer), 0.001)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultScorerConfig()))

	bad := DefaultScorerConfig()
	bad.PriceWeight = -5
	assert.Error(t, ValidateConfig(bad))

	skewed := DefaultScorerConfig()
	skewed.PriceWeight = 80
	err := ValidateConfig(skewed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 100")

	noRef := DefaultScorerConfig()
	noRef.PriceReference = 0
	assert.Error(t, ValidateConfig(noRef))
}
