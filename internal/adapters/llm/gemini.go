// Package llm adapts external language models to the SemanticComparator port.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
)

const comparePrompt = `You are an accounting assistant. Rate how likely the two concept texts below describe the same purchase, on a scale from 0 (certainly different) to 100 (certainly the same). The texts come from Mexican invoices and expense tickets and may use abbreviations or different wording for the same thing.

Text A: %s
Text B: %s

Answer with a single integer between 0 and 100 and nothing else.`

// scorePattern pulls the first integer out of the model reply; models
// occasionally wrap the number in prose despite instructions.
var scorePattern = regexp.MustCompile(`\d{1,3}`)

// GeminiComparator rates concept similarity via the Gemini API.
type GeminiComparator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiComparator dials the Gemini API. The caller owns Close.
func NewGeminiComparator(ctx context.Context, apiKey, modelName string) (*GeminiComparator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Deterministic, tiny replies: one integer.
	model.SetTemperature(0)
	model.SetMaxOutputTokens(8)

	return &GeminiComparator{client: client, model: model}, nil
}

var _ portssvc.SemanticComparator = (*GeminiComparator)(nil)

// CompareConcepts asks the model for a 0-100 similarity rating.
func (g *GeminiComparator) CompareConcepts(ctx context.Context, a, b string) (int, error) {
	prompt := fmt.Sprintf(comparePrompt, a, b)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("gemini request failed: %w", err)
	}

	reply, err := firstText(resp)
	if err != nil {
		return 0, err
	}

	match := scorePattern.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("gemini reply contains no score: %q", reply)
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("unparseable score %q: %w", match, err)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %d out of range", score)
	}
	return score, nil
}

// Close releases the underlying API client.
func (g *GeminiComparator) Close() error {
	return g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return strings.TrimSpace(string(text)), nil
		}
	}
	return "", fmt.Errorf("gemini candidate contains no text part")
}
