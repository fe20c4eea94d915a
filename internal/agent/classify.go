package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/model"
	"github.com/sells-group/dealfinder-cli/pkg/anthropic"
)

const classifySystemPrompt = `Classify the user's message into exactly one of these intents: search_products (the user wants to find or compare product offers), extract_from_url (the user wants details about a specific product page URL), default_chat (anything else). Respond with a valid JSON object: {"intent": "<intent>", "reasoning": "<one sentence>"}`

const classifyUserPrompt = `Conversation so far:
%s

Latest user message:
%s`

// urlPattern matches the first http(s) URL in a message.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// searchKeywords trigger the search intent in rule-based classification.
var searchKeywords = []string{
	"find", "search", "look for", "compare", "best price", "deal",
	"buy", "purchase", "shop", "price", "cost", "cheap", "expensive",
}

// FallbackClassify classifies a message with rules alone: messages with a
// URL want extraction, messages with shopping vocabulary want search, and
// everything else is chat.
func FallbackClassify(message string) model.Classification {
	if urlPattern.MatchString(message) {
		return model.Classification{
			Intent:    model.IntentExtractURL,
			Reasoning: "message contains a URL",
		}
	}

	lower := strings.ToLower(message)
	for _, kw := range searchKeywords {
		if strings.Contains(lower, kw) {
			return model.Classification{
				Intent:    model.IntentSearch,
				Reasoning: fmt.Sprintf("message mentions %q", kw),
			}
		}
	}

	return model.Classification{
		Intent:    model.IntentChat,
		Reasoning: "no URL or shopping keywords found",
	}
}

// classify determines the intent of a message using Haiku, falling back to
// rule-based classification when the model call or parse fails.
func (a *Agent) classify(ctx context.Context, history string, message string) model.Classification {
	if a.anthropic == nil {
		return FallbackClassify(message)
	}

	resp, err := a.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.cfg.Anthropic.ClassifyModel,
		MaxTokens: 128,
		System:    classifySystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(classifyUserPrompt, history, message)},
		},
	})
	if err != nil {
		zap.L().Warn("agent: intent classification failed, using rules", zap.Error(err))
		return FallbackClassify(message)
	}
	resp.Usage.LogCost(a.cfg.Anthropic.ClassifyModel, "classify")

	classification, err := parseClassification(resp.Text())
	if err != nil {
		zap.L().Warn("agent: unparseable classification, using rules",
			zap.String("response", resp.Text()),
			zap.Error(err),
		)
		return FallbackClassify(message)
	}
	return classification
}

// parseClassification extracts the JSON object embedded in the model's
// response and validates the intent value.
func parseClassification(text string) (model.Classification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.Classification{}, eris.New("agent: no JSON object in classification")
	}

	var c model.Classification
	if err := json.Unmarshal([]byte(text[start:end+1]), &c); err != nil {
		return model.Classification{}, eris.Wrap(err, "agent: unmarshal classification")
	}

	switch c.Intent {
	case model.IntentSearch, model.IntentExtractURL, model.IntentChat:
		return c, nil
	default:
		return model.Classification{}, eris.Errorf("agent: unknown intent %q", c.Intent)
	}
}
