package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"docquiz-service/internal/domain"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator produces candidates through the Gemini API. Unlike the
// OpenAI path there is no tool forcing, so the completion text goes through
// fence cleanup and the strict parser.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	log    logrus.FieldLogger
}

// NewGeminiGenerator builds a client. An empty apiKey defers to the SDK's
// environment-based credentials.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, log logrus.FieldLogger) (*GeminiGenerator, error) {
	var cc *genai.ClientConfig
	if apiKey != "" {
		cc = &genai.ClientConfig{APIKey: apiKey}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model, log: log}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, sourceText string, opts GenerateOptions) ([]Candidate, error) {
	prompt := systemPrompt + "\n\n" + BuildPrompt(sourceText, opts)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	raw := result.Text()
	if raw == "" {
		return nil, &domain.TransportError{Op: "gemini generate", Err: errors.New("empty completion")}
	}

	candidates, rejected, err := ParseCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if rejected > 0 {
		g.log.WithField("rejected", rejected).Warn("Dropped malformed question candidates")
	}
	return candidates, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 400 && apiErr.Code < 500 {
			return &domain.ValidationError{Reason: fmt.Sprintf("generation rejected: %s", apiErr.Message)}
		}
		return &domain.TransportError{Op: "gemini generate", Status: apiErr.Code, Err: err}
	}
	return &domain.TransportError{Op: "gemini generate", Err: err}
}
