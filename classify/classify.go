package classify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"feedbacklens/config"
	"feedbacklens/models"

	openai "github.com/sashabaranov/go-openai"
)

const (
	classifyTimeout   = 15 * time.Second
	classifyMaxTokens = 100
)

const classifyPrompt = `Analyze this customer feedback and respond with exactly three labeled lines:

Sentiment: one of positive, negative, neutral
Themes: comma-separated tags from: %s
Urgency: one of low, medium, high

Feedback: "%s"

Respond with the three labeled lines only, nothing else.`

// Labels is the normalized classification triple for one feedback entry.
type Labels struct {
	Sentiment string
	Themes    string // comma-joined vocabulary tags
	Urgency   string
}

// Result is the outcome of one classification. Labels is always usable:
// when the external call fails or its output is unusable, Labels holds the
// defaults and Degraded carries the reason. Callers never see an error.
type Result struct {
	Labels   Labels
	Degraded bool
	Reason   string
}

// DefaultLabels is the safe triple used when classification degrades.
func DefaultLabels() Labels {
	return Labels{
		Sentiment: models.SentimentNeutral,
		Themes:    models.ThemeFallback,
		Urgency:   models.UrgencyMedium,
	}
}

// ChatClient is the slice of the OpenAI client the extractor needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor turns raw feedback text into a validated label triple.
type Extractor struct {
	client ChatClient
	model  string
}

func NewExtractor(client ChatClient, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// NewOpenAIExtractor builds an extractor backed by the OpenAI API or an
// OpenAI-compatible gateway.
func NewOpenAIExtractor(cfg *config.Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	return NewExtractor(openai.NewClientWithConfig(clientCfg), cfg.OpenAIModel)
}

// Classify labels one piece of feedback text. It never fails: any transport
// error or unusable response degrades to the default triple.
func (e *Extractor) Classify(ctx context.Context, text string) Result {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := fmt.Sprintf(classifyPrompt, strings.Join(models.Themes, ", "), text)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		return degraded(fmt.Sprintf("classifier call failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return degraded("classifier returned no choices")
	}

	parsed, found := parseResponse(resp.Choices[0].Message.Content)
	if !found {
		return degraded("classifier response had no recognizable labels")
	}

	return Result{Labels: normalize(parsed)}
}

func degraded(reason string) Result {
	log.Printf("Classification degraded: %s", reason)
	return Result{Labels: DefaultLabels(), Degraded: true, Reason: reason}
}

// parsedResponse holds the raw label values scraped from the model output.
// Empty string means the label line was missing.
type parsedResponse struct {
	sentiment string
	themes    string
	urgency   string
}

// parseResponse pattern-matches the three expected label lines. found is
// false when not a single label line was present.
func parseResponse(content string) (parsedResponse, bool) {
	var parsed parsedResponse
	found := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "sentiment:"):
			parsed.sentiment = strings.TrimSpace(line[len("sentiment:"):])
			found = true
		case strings.HasPrefix(lower, "themes:"):
			parsed.themes = strings.TrimSpace(line[len("themes:"):])
			found = true
		case strings.HasPrefix(lower, "urgency:"):
			parsed.urgency = strings.TrimSpace(line[len("urgency:"):])
			found = true
		}
	}
	return parsed, found
}

// normalize validates each field independently against its vocabulary,
// substituting the default for anything missing or out of vocabulary.
func normalize(parsed parsedResponse) Labels {
	labels := DefaultLabels()

	if s := strings.ToLower(parsed.sentiment); models.ValidSentiment(s) {
		labels.Sentiment = s
	}
	if u := strings.ToLower(parsed.urgency); models.ValidUrgency(u) {
		labels.Urgency = u
	}
	if tags := normalizeThemes(parsed.themes); len(tags) > 0 {
		labels.Themes = strings.Join(tags, ", ")
	}
	return labels
}

// normalizeThemes filters a raw comma-separated tag list down to the closed
// vocabulary, deduplicated, in response order.
func normalizeThemes(raw string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] || !models.ValidTheme(tag) {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
