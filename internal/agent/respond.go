package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/anthropic"
)

const respondSystemPrompt = `You are a helpful shopping assistant. You help users find products, compare offers, and decide what to buy. Be concise and concrete. When you reference an offer, mention its retailer and price. Never invent offers that are not in the data you are given.`

const searchResponsePrompt = `Conversation so far:
%s

The user is shopping for products. These offers were found:
%s

Comparison analysis:
%s

Write a helpful response that summarizes the offers and recommends the best one. Mention prices and retailers.`

const extractResponsePrompt = `Conversation so far:
%s

The user asked about a product page. This offer was extracted from it:
%s

Write a helpful response describing the product, its price, and availability.`

const chatResponsePrompt = `Conversation so far:
%s

Write the assistant's next reply. If the user seems interested in buying something, invite them to name a product to search for.`

// mentionPattern catches retailer references like "from amazon.com" in
// generated text so they can be cited.
var mentionPattern = regexp.MustCompile(`from\s+([^\s,]+)`)

// formatOffers renders offers as a numbered list for model prompts.
// Descriptions are truncated so a handful of offers stays prompt-sized.
func formatOffers(offers []model.Offer) string {
	var b strings.Builder
	for i, o := range offers {
		fmt.Fprintf(&b, "%d. %s", i+1, o.Title)
		if o.Price != "" {
			fmt.Fprintf(&b, " | %s", o.Price)
		}
		if o.Source != "" {
			fmt.Fprintf(&b, " | from %s", o.Source)
		}
		if o.Availability != "" {
			fmt.Fprintf(&b, " | %s", o.Availability)
		}
		if o.Description != "" {
			desc := o.Description
			if len(desc) > 100 {
				desc = desc[:100] + "..."
			}
			fmt.Fprintf(&b, "\n   %s", desc)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatComparison renders the comparison analysis block for model prompts.
func formatComparison(cmp *model.ComparisonResult) string {
	if cmp == nil {
		return "Comparison unavailable."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Best offer: %s", cmp.BestOffer.Title)
	if cmp.BestOffer.Price != "" {
		fmt.Fprintf(&b, " at %s", cmp.BestOffer.Price)
	}
	if cmp.BestOffer.Source != "" {
		fmt.Fprintf(&b, " from %s", cmp.BestOffer.Source)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Reasoning: %s", cmp.Reasoning)
	if pr := cmp.Metrics.PriceRange; pr != nil {
		fmt.Fprintf(&b, "\nPrice range: $%.2f to $%.2f (average $%.2f)", pr.Min, pr.Max, pr.Avg)
	}
	if sd := cmp.Metrics.SourceDiversity; sd != nil {
		fmt.Fprintf(&b, "\nSources: %d retailers", sd.UniqueSources)
	}
	return b.String()
}

// generate produces the assistant's reply with Sonnet. With no client
// configured it returns the deterministic offline text instead; a model
// call failure is surfaced to the caller.
func (a *Agent) generate(ctx context.Context, prompt, offline string) (string, error) {
	if a.anthropic == nil {
		return offline, nil
	}

	resp, err := a.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.cfg.Anthropic.RespondModel,
		MaxTokens: a.cfg.Chat.MaxTokens,
		System:    respondSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "agent: generate response")
	}
	resp.Usage.LogCost(a.cfg.Anthropic.RespondModel, "respond")

	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}
	zap.L().Warn("agent: model returned no text, using offline response")
	return offline, nil
}

// searchFallbackResponse is the deterministic reply used when no model is
// configured.
func searchFallbackResponse(cmp *model.ComparisonResult) string {
	best := cmp.BestOffer
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d offers. The best one is %s", cmp.Metrics.TotalOffers, best.Title)
	if best.Price != "" {
		fmt.Fprintf(&b, " at %s", best.Price)
	}
	if best.Source != "" {
		fmt.Fprintf(&b, " from %s", best.Source)
	}
	b.WriteString(". ")
	b.WriteString(cmp.Reasoning)
	return b.String()
}

// extractFallbackResponse describes a single extracted offer without the
// model.
func extractFallbackResponse(offer *model.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is what I found: %s", offer.Title)
	if offer.Price != "" {
		fmt.Fprintf(&b, " at %s", offer.Price)
	}
	if offer.Source != "" {
		fmt.Fprintf(&b, " from %s", offer.Source)
	}
	if offer.Availability != "" {
		fmt.Fprintf(&b, " (%s)", offer.Availability)
	}
	b.WriteString(".")
	return b.String()
}

const chatFallbackResponse = "I can help you find and compare product offers. Tell me what you are shopping for, or paste a product page URL."

// extractCitations collects cited sources from a response and the offers
// behind it: offer URLs, URLs appearing in the text, and "from <retailer>"
// mentions. The result is deduplicated and sorted.
func extractCitations(response string, offers []model.Offer) []string {
	seen := make(map[string]struct{})
	add := func(c string) {
		c = strings.TrimRight(c, ".,;:)")
		if c == "" {
			return
		}
		seen[c] = struct{}{}
	}

	for _, o := range offers {
		add(o.URL)
	}
	for _, u := range urlPattern.FindAllString(response, -1) {
		add(u)
	}
	for _, m := range mentionPattern.FindAllStringSubmatch(response, -1) {
		add(m[1])
	}

	if len(seen) == 0 {
		return nil
	}
	citations := make([]string, 0, len(seen))
	for c := range seen {
		citations = append(citations, c)
	}
	sort.Strings(citations)
	return citations
}

// firstURL returns the first URL in a message.
func firstURL(message string) (string, error) {
	u := urlPattern.FindString(message)
	if u == "" {
		return "", eris.New("agent: no URL in message")
	}
	return strings.TrimRight(u, ".,;:)"), nil
}
