package compare

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealfinder-cli/internal/model"
)

// ErrNoOffers is returned when a comparison is requested with no offers.
var ErrNoOffers = eris.New("compare: no offers to compare")

// singleOfferReasoning is the fixed reasoning for singleton comparisons.
const singleOfferReasoning = "Only one offer available"

// Comparator orchestrates scoring across a set of offers and selects the
// best one.
type Comparator struct {
	scorer *Scorer
}

// NewComparator creates a Comparator using the given scorer.
func NewComparator(scorer *Scorer) *Comparator {
	return &Comparator{scorer: scorer}
}

// Compare scores every offer, picks the highest-scoring one, and assembles
// metrics and reasoning. Ties resolve to the earliest-occurring offer.
// AllOffers preserves the input order.
func (c *Comparator) Compare(offers []model.Offer) (*model.ComparisonResult, error) {
	if len(offers) == 0 {
		return nil, ErrNoOffers
	}

	if len(offers) == 1 {
		return &model.ComparisonResult{
			BestOffer: offers[0],
			AllOffers: offers,
			Metrics: model.ComparisonMetrics{
				TotalOffers: 1,
				SingleOffer: true,
			},
			Reasoning: singleOfferReasoning,
		}, nil
	}

	scored := make([]model.ScoredOffer, len(offers))
	for i, offer := range offers {
		scored[i] = model.ScoredOffer{Offer: offer, Score: c.scorer.Score(offer)}
	}

	// Stable sort so equal scores keep their input order.
	ranked := make([]model.ScoredOffer, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	best := ranked[0]

	// Stable sort means the winner is the first input offer with the top
	// score; recover its index for the reasoning step.
	bestIdx := 0
	for i, so := range scored {
		if so.Score == best.Score {
			bestIdx = i
			break
		}
	}

	return &model.ComparisonResult{
		BestOffer: best.Offer,
		AllOffers: offers,
		Metrics:   c.buildMetrics(scored),
		Reasoning: c.buildReasoning(scored, bestIdx),
	}, nil
}

// buildMetrics computes named statistics over the scored offers.
func (c *Comparator) buildMetrics(scored []model.ScoredOffer) model.ComparisonMetrics {
	metrics := model.ComparisonMetrics{
		TotalOffers: len(scored),
	}

	var prices []float64
	for _, so := range scored {
		if so.Offer.Price == "" {
			continue
		}
		if val := ExtractNumericPrice(so.Offer.Price); val > 0 {
			prices = append(prices, val)
		}
	}
	if len(prices) > 0 {
		pr := model.PriceRange{Min: prices[0], Max: prices[0]}
		var sum float64
		for _, p := range prices {
			if p < pr.Min {
				pr.Min = p
			}
			if p > pr.Max {
				pr.Max = p
			}
			sum += p
		}
		pr.Avg = sum / float64(len(prices))
		metrics.PriceRange = &pr
	}

	seen := make(map[string]bool)
	var sources []string
	for _, so := range scored {
		if !seen[so.Offer.Source] {
			seen[so.Offer.Source] = true
			sources = append(sources, so.Offer.Source)
		}
	}
	metrics.SourceDiversity = &model.SourceDiversity{
		UniqueSources: len(sources),
		Sources:       sources,
	}

	dist := model.ScoreDistribution{MinScore: scored[0].Score, MaxScore: scored[0].Score}
	var scoreSum float64
	for _, so := range scored {
		if so.Score < dist.MinScore {
			dist.MinScore = so.Score
		}
		if so.Score > dist.MaxScore {
			dist.MaxScore = so.Score
		}
		scoreSum += so.Score
	}
	dist.AvgScore = scoreSum / float64(len(scored))
	metrics.ScoreDistribution = &dist

	return metrics
}

// buildReasoning assembles a deterministic explanation for the selection.
// Each clause is appended only when its condition holds; clauses are joined
// with ". " and terminated with ".".
func (c *Comparator) buildReasoning(scored []model.ScoredOffer, bestIdx int) string {
	best := scored[bestIdx]
	var parts []string

	switch {
	case best.Score > 80:
		parts = append(parts, "This offer received an excellent overall score")
	case best.Score > 60:
		parts = append(parts, "This offer received a good overall score")
	default:
		parts = append(parts, "This offer was selected as the best available option")
	}

	if best.Offer.Price != "" {
		if price := ExtractNumericPrice(best.Offer.Price); price > 0 {
			var others []float64
			for i, so := range scored {
				if i == bestIdx || so.Offer.Price == "" {
					continue
				}
				if p := ExtractNumericPrice(so.Offer.Price); p > 0 {
					others = append(others, p)
				}
			}
			if len(others) > 0 {
				minOther, sum := others[0], 0.0
				for _, p := range others {
					if p < minOther {
						minOther = p
					}
					sum += p
				}
				switch {
				case price < minOther:
					parts = append(parts, "it offers the lowest price among all options")
				case price < sum/float64(len(others)):
					parts = append(parts, "it offers a competitive price below the average")
				}
			}
		}
	}

	switch sourceScore := c.scorer.SourceScore(best.Offer.Source); {
	case sourceScore > 0.8:
		parts = append(parts, "it comes from a highly trusted retailer")
	case sourceScore > 0.6:
		parts = append(parts, "it comes from a reputable retailer")
	}

	if len(best.Offer.Description) > 100 {
		parts = append(parts, "it provides detailed product information")
	}

	if best.Offer.Rating != nil {
		switch {
		case *best.Offer.Rating > 4.0:
			parts = append(parts, "it has excellent customer ratings")
		case *best.Offer.Rating > 3.5:
			parts = append(parts, "it has good customer ratings")
		}
	}

	return strings.Join(parts, ". ") + "."
}
