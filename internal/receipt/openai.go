package receipt

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const prompt = `Extract the line items from this receipt image.
Respond with only a JSON object, no prose and no code fences, shaped as:
{"items":[{"name":"...","unit_price":0.0,"quantity":1}],"tax":{"sales_tax":0.0}}
Rules:
- unit_price is the price of a single unit, not the line total.
- quantity is a positive integer; use 1 when the receipt does not show one.
- "tax" holds every tax or fee line under its own key; omit keys you cannot read.
- Do not include tips, subtotals, or totals as items.`

// OpenAIParser implements Parser with an OpenAI vision chat completion.
type OpenAIParser struct {
	client *openai.Client
	model  string
}

// NewOpenAIParser builds a parser for the given API key and model. An empty
// model defaults to gpt-4o-mini.
func NewOpenAIParser(apiKey, model string) *OpenAIParser {
	if model == "" {
		model = openai.GPT4oMini
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	return &OpenAIParser{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Parse sends the image to the model and coerces the response. Failures of
// any kind come back wrapped in ErrParseFailed.
func (p *OpenAIParser) Parse(ctx context.Context, image []byte, mimeType string) (*ParsedReceipt, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", ErrParseFailed)
	}

	parsed, err := decode(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	slog.Debug("Receipt parsed", "items", len(parsed.Items), "tax", parsed.TaxAmount)
	return parsed, nil
}
