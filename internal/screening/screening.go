// Package screening asks an OpenAI chat model for a quick verdict on a
// nomination before it reaches the moderation queue.
package screening

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"builder-maps/internal/models"
	"builder-maps/internal/prompts"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/metrics"
)

// Screener produces a ScreeningResult for a spot about to be stored.
type Screener interface {
	Screen(ctx context.Context, spot models.Spot) (*models.ScreeningResult, error)
}

// ChatClient is the part of *openai.Client used by the screener.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var (
	mRequests = metrics.Default.Counter("screening_requests_total", "Screening completions returned by OpenAI")
	mTokens   = metrics.Default.Counter("screening_tokens_total", "OpenAI tokens spent on screening")
)

// OpenAIScreener implements Screener with a JSON-mode chat completion.
type OpenAIScreener struct {
	client  ChatClient
	pm      *prompts.Manager
	model   string
	timeout time.Duration
}

// NewOpenAIScreener builds a screener on the official client for apiKey.
func NewOpenAIScreener(apiKey, model string, pm *prompts.Manager, timeout time.Duration) *OpenAIScreener {
	return NewWithClient(openai.NewClient(apiKey), model, pm, timeout)
}

// NewWithClient builds a screener on any ChatClient.
func NewWithClient(client ChatClient, model string, pm *prompts.Manager, timeout time.Duration) *OpenAIScreener {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIScreener{
		client:  client,
		pm:      pm,
		model:   model,
		timeout: timeout,
	}
}

// Screen classifies spot as ok, spam or off topic.
func (s *OpenAIScreener) Screen(ctx context.Context, spot models.Spot) (*models.ScreeningResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.buildSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: s.buildUserPrompt(spot)},
		},
		Temperature:    0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, errs.NewExternal("screening.Screen", "openai", "chat completion failed", err)
	}
	mRequests.Inc()
	mTokens.Add(int64(resp.Usage.TotalTokens))
	if len(resp.Choices) == 0 {
		return nil, errs.NewExternal("screening.Screen", "openai", "empty response", nil)
	}

	result, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, errs.NewExternal("screening.Screen", "openai", "unparseable response", err)
	}
	result.Model = s.model
	return result, nil
}

func (s *OpenAIScreener) buildSystemPrompt() string {
	cats := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		cats[i] = string(c)
	}
	if s.pm != nil {
		if out, err := s.pm.Render("screening_system", map[string]any{"Categories": cats}); err == nil {
			return out
		}
	}
	return fmt.Sprintf(fallbackSystemPrompt, strings.Join(cats, ", "))
}

func (s *OpenAIScreener) buildUserPrompt(spot models.Spot) string {
	data := map[string]any{
		"Name":        spot.Name,
		"CityID":      spot.CityID,
		"Category":    string(spot.Category),
		"Address":     deref(spot.Address),
		"Description": deref(spot.Description),
		"Website":     deref(spot.Website),
		"Links":       spot.SocialLinks,
	}
	if s.pm != nil {
		if out, err := s.pm.Render("screening_user", data); err == nil {
			return out
		}
	}
	return fmt.Sprintf("Name: %s\nCity: %s\nCategory: %s", spot.Name, spot.CityID, spot.Category)
}

func parseResponse(response string) (*models.ScreeningResult, error) {
	// Models occasionally wrap JSON in a fenced block even in JSON mode.
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var r models.ScreeningResult
	if err := json.Unmarshal([]byte(response), &r); err != nil {
		return nil, fmt.Errorf("failed to parse screening response: %w", err)
	}
	switch r.Verdict {
	case models.VerdictOK, models.VerdictSpam, models.VerdictOffTopic:
	default:
		return nil, fmt.Errorf("unknown verdict %q", r.Verdict)
	}
	if r.SuggestedCategory != "" && !r.SuggestedCategory.Valid() {
		r.SuggestedCategory = ""
	}
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const fallbackSystemPrompt = `You review nominations for a map of places where builders work and meet.
Classify the nomination as "ok", "spam" or "off_topic" and suggest a category from: %s.
Output JSON: {"verdict": "...", "suggested_category": "...", "reason": "..."}`
