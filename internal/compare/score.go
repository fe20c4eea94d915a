// Package compare implements deterministic scoring and comparison of
// product offers.
package compare

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealfinder-cli/internal/config"
	"github.com/sells-group/dealfinder-cli/internal/model"
)

// numericPricePattern matches the first numeric token in a price string
// after thousand separators are stripped.
var numericPricePattern = regexp.MustCompile(`\d+\.?\d*`)

// ExtractNumericPrice parses the first numeric token from a free-form price
// string. Returns 0 when no numeric token is found.
func ExtractNumericPrice(price string) float64 {
	cleaned := strings.ReplaceAll(price, ",", "")
	match := numericPricePattern.FindString(cleaned)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

// DefaultScorerConfig returns a config.ScorerConfig with the reference
// weights and heuristics. Weights sum to 100.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		PriceWeight:        40,
		SourceWeight:       20,
		DescriptionWeight:  20,
		AvailabilityWeight: 10,
		RatingWeight:       10,

		PriceReference: 1000,

		TrustedSources:     []string{"amazon", "bestbuy", "walmart", "target", "newegg", "bhphotovideo"},
		MediumTrustSources: []string{"ebay", "etsy", "shopify", "woocommerce"},
		DescriptionKeywords: []string{
			"warranty", "guarantee", "free shipping",
			"fast delivery", "authentic", "genuine",
		},
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.ScorerConfig) float64 {
	return c.PriceWeight + c.SourceWeight + c.DescriptionWeight +
		c.AvailabilityWeight + c.RatingWeight
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	weights := map[string]float64{
		"price_weight":        c.PriceWeight,
		"source_weight":       c.SourceWeight,
		"description_weight":  c.DescriptionWeight,
		"availability_weight": c.AvailabilityWeight,
		"rating_weight":       c.RatingWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(sum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", sum))
	}

	if c.PriceReference <= 0 {
		errs = append(errs, "price_reference must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("compare: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scorer converts an offer into a numeric desirability score. Pure; no I/O.
type Scorer struct {
	cfg config.ScorerConfig
}

// NewScorer creates a Scorer. Zero-valued configs fall back to the defaults.
func NewScorer(cfg config.ScorerConfig) *Scorer {
	if WeightSum(cfg) == 0 {
		cfg = DefaultScorerConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score computes the weighted sum of the five sub-scores. Missing fields
// contribute 0 to their sub-score; remaining weights are not renormalized.
func (s *Scorer) Score(offer model.Offer) float64 {
	score := 0.0

	// Price: lower price = higher score, bottoming out at the reference.
	if offer.Price != "" {
		if price := ExtractNumericPrice(offer.Price); price > 0 {
			normalized := math.Min(price/s.cfg.PriceReference, 1.0)
			score += (1.0 - normalized) * s.cfg.PriceWeight
		}
	}

	score += s.SourceScore(offer.Source) * s.cfg.SourceWeight
	score += s.descriptionScore(offer.Description) * s.cfg.DescriptionWeight

	if offer.Availability != "" {
		score += s.availabilityScore(offer.Availability) * s.cfg.AvailabilityWeight
	}

	if offer.Rating != nil {
		score += math.Min(*offer.Rating/5.0, 1.0) * s.cfg.RatingWeight
	}

	return score
}

// SourceScore rates source credibility in [0,1]. Exported because the
// comparator's reasoning tiers on the pre-weight value.
func (s *Scorer) SourceScore(source string) float64 {
	lower := strings.ToLower(source)

	for _, domain := range s.cfg.TrustedSources {
		if strings.Contains(lower, domain) {
			return 1.0
		}
	}
	for _, domain := range s.cfg.MediumTrustSources {
		if strings.Contains(lower, domain) {
			return 0.7
		}
	}
	return 0.5
}

// descriptionScore rates description quality in [0,1]: a length-tier bonus
// plus 0.1 per matched keyword, capped at 1.0.
func (s *Scorer) descriptionScore(description string) float64 {
	if description == "" {
		return 0
	}

	score := 0.0
	switch {
	case len(description) > 100:
		score += 0.3
	case len(description) > 50:
		score += 0.2
	default:
		score += 0.1
	}

	lower := strings.ToLower(description)
	for _, kw := range s.cfg.DescriptionKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += 0.1
		}
	}

	return math.Min(score, 1.0)
}

// availabilityScore rates availability phrasing in [0,1].
func (s *Scorer) availabilityScore(availability string) float64 {
	lower := strings.ToLower(availability)

	switch {
	case containsAny(lower, "in stock", "available", "ready to ship"):
		return 1.0
	case containsAny(lower, "limited", "few left"):
		return 0.7
	case containsAny(lower, "out of stock", "unavailable"):
		return 0.0
	default:
		return 0.5
	}
}

// containsAny checks if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
