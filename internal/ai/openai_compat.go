// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatCompletion is a text adapter for any OpenAI-compatible chat
// completions endpoint. Groq (fast) and OpenRouter (versatile) both use it
// with different base URLs and models.
type chatCompletion struct {
	id     AdapterID
	client openai.Client
	model  string
}

func newChatCompletion(id AdapterID, apiKey, baseURL, model string, opts Options) (*chatCompletion, error) {
	if apiKey == "" {
		return nil, NewError(KindMissingCredential, id, "key is empty", nil)
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(opts.HTTPClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(opts.Timeout),
	)
	return &chatCompletion{id: id, client: client, model: model}, nil
}

func (c *chatCompletion) Name() AdapterID { return c.id }

// GenerateText sends the prompt as a single user message.
func (c *chatCompletion) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", classify(c.id, err)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(KindUnexpectedResponse, c.id, "no choices returned", nil)
	}
	if resp.Choices[0].FinishReason == "content_filter" {
		return "", NewError(KindContentBlocked, c.id, "response blocked by content filter", nil)
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", NewError(KindUnexpectedResponse, c.id, "no text in response", nil)
	}
	return text, nil
}

// Check lists the models available to the key.
func (c *chatCompletion) Check(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return classify(c.id, err)
	}
	return nil
}
