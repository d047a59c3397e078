package agents

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultAdvisorModel is the Gemini model used for plan narration.
const DefaultAdvisorModel = "gemini-2.5-flash"

const advisorMaxTokens = 120

// Advisor generates short operator-facing notes for plan messages using
// Gemini. It is entirely optional: when no API key is configured there is no
// advisor, and a failed call degrades to the plain plan message. It never
// participates in loop control.
type Advisor struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewAdvisor returns nil when apiKey is empty, which disables narration.
func NewAdvisor(apiKey, model string) *Advisor {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultAdvisorModel
	}
	return &Advisor{apiKey: apiKey, model: model}
}

// Narrate asks Gemini for a one-sentence note on the plan.
func (a *Advisor) Narrate(ctx context.Context, goal string, steps []string) (string, error) {
	// Client creation needs a context, so it is deferred to first use.
	if a.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  a.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create Gemini client: %w", err)
		}
		a.client = client
	}

	prompt := fmt.Sprintf(
		"In one sentence, advise a disaster relief coordinator pursuing %q with the pipeline %s.",
		goal, strings.Join(steps, " -> "))

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: advisorMaxTokens,
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("Gemini call failed: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return strings.TrimSpace(result.Text()), nil
}
