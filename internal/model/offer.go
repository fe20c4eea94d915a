package model

// Offer represents a product offer found during web search or page
// extraction. Offers are immutable once constructed.
type Offer struct {
	Title        string   `json:"title"`
	Price        string   `json:"price,omitempty"` // free-form, currency-prefixed
	URL          string   `json:"url"`
	Source       string   `json:"source"` // domain or retailer name
	Description  string   `json:"description,omitempty"`
	Rating       *float64 `json:"rating,omitempty"` // 0-5
	Availability string   `json:"availability,omitempty"`
}

// ScoredOffer pairs an offer with its computed desirability score.
// Derived and transient; recomputed on every comparison.
type ScoredOffer struct {
	Offer Offer   `json:"offer"`
	Score float64 `json:"score"`
}

// PriceRange summarizes numeric prices across compared offers.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// SourceDiversity summarizes the distinct sources across compared offers.
type SourceDiversity struct {
	UniqueSources int      `json:"unique_sources"`
	Sources       []string `json:"sources"`
}

// ScoreDistribution summarizes computed scores across compared offers.
type ScoreDistribution struct {
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
	AvgScore float64 `json:"avg_score"`
}

// ComparisonMetrics holds named statistics produced by a comparison.
type ComparisonMetrics struct {
	TotalOffers       int                `json:"total_offers"`
	SingleOffer       bool               `json:"single_offer,omitempty"`
	PriceRange        *PriceRange        `json:"price_range,omitempty"` // nil when no price parses
	SourceDiversity   *SourceDiversity   `json:"source_diversity,omitempty"`
	ScoreDistribution *ScoreDistribution `json:"score_distribution,omitempty"`
}

// ComparisonResult is the outcome of comparing a set of offers.
// BestOffer is always an element of AllOffers; AllOffers preserves the
// caller's input order.
type ComparisonResult struct {
	BestOffer Offer             `json:"best_offer"`
	AllOffers []Offer           `json:"all_offers"`
	Metrics   ComparisonMetrics `json:"metrics"`
	Reasoning string            `json:"reasoning"`
}
