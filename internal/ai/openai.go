package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/domain"
)

// questionSchema is the function-call parameter schema. Forcing the model
// through a tool call keeps the output machine-parseable.
var questionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The question text",
					},
					"options": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"id":   map[string]interface{}{"type": "string", "description": "Option label A-D"},
								"text": map[string]interface{}{"type": "string"},
							},
							"required": []string{"id", "text"},
						},
						"description": "Exactly 4 answer options",
					},
					"correct_option_id": map[string]interface{}{
						"type":        "string",
						"description": "Label of the single correct option",
					},
					"explanation": map[string]interface{}{
						"type":        "string",
						"description": "Why the correct option is correct",
					},
				},
				"required": []string{"text", "options", "correct_option_id", "explanation"},
			},
		},
	},
	"required": []string{"questions"},
}

// OpenAIGenerator produces candidates through the chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	log    logrus.FieldLogger
}

func NewOpenAIGenerator(apiKey, model string, log logrus.FieldLogger) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, sourceText string, opts GenerateOptions) ([]Candidate, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(sourceText, opts)},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "submit_questions",
					Description: "Submit generated quiz questions",
					Parameters:  questionSchema,
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "submit_questions"},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &domain.TransportError{Op: "openai generate", Err: errors.New("no choices in response")}
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, &domain.TransportError{Op: "openai generate", Err: errors.New("model skipped the forced tool call")}
	}
	call := choice.Message.ToolCalls[0]
	if call.Function.Name != "submit_questions" {
		return nil, &domain.TransportError{Op: "openai generate", Err: fmt.Errorf("unexpected tool call %q", call.Function.Name)}
	}

	candidates, rejected, err := ParseCandidates(call.Function.Arguments)
	if err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	if rejected > 0 {
		g.log.WithField("rejected", rejected).Warn("Dropped malformed question candidates")
	}
	return candidates, nil
}

// mapOpenAIError keeps the retry classification honest: API 4xx responses
// are definitive rejections, everything else is worth another attempt.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
			return &domain.ValidationError{Reason: fmt.Sprintf("generation rejected: %s", apiErr.Message)}
		}
		return &domain.TransportError{Op: "openai generate", Status: apiErr.HTTPStatusCode, Err: err}
	}
	return &domain.TransportError{Op: "openai generate", Err: err}
}
