// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// newGenAIClient creates a Gemini API client bound to one key. The same
// client backs both the text and the image adapter.
func newGenAIClient(ctx context.Context, apiKey string, opts Options) (*genai.Client, error) {
	if apiKey == "" {
		return nil, NewError(KindMissingCredential, AdapterGemini, "primary key is empty", nil)
	}
	timeout := opts.Timeout
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.GeminiBaseURL,
			APIVersion: "v1beta",
			Timeout:    &timeout,
		},
	})
}

// geminiText is the primary text adapter.
type geminiText struct {
	client *genai.Client
	model  string
}

func (g *geminiText) Name() AdapterID { return AdapterGemini }

// GenerateText sends one generateContent request.
func (g *geminiText) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classify(AdapterGemini, err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", NewError(KindContentBlocked, AdapterGemini,
			fmt.Sprintf("prompt blocked (%s)", fb.BlockReason), nil)
	}

	if len(resp.Candidates) == 0 {
		return "", NewError(KindUnexpectedResponse, AdapterGemini, "no candidates returned", nil)
	}

	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return "", NewError(KindContentBlocked, AdapterGemini,
			fmt.Sprintf("response blocked (%s)", resp.Candidates[0].FinishReason), nil)
	}

	text := resp.Text()
	if text == "" {
		return "", NewError(KindUnexpectedResponse, AdapterGemini, "no text in response", nil)
	}
	return text, nil
}

// Check lists one model, which needs a valid key but generates nothing.
func (g *geminiText) Check(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return classify(AdapterGemini, err)
	}
	return nil
}

// imagenImage is the primary image adapter.
type imagenImage struct {
	client *genai.Client
	model  string
}

func (g *imagenImage) Name() AdapterID { return AdapterImagen }

// GenerateImage asks for exactly one JPEG image.
func (g *imagenImage) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		return Image{}, classify(AdapterImagen, err)
	}

	if len(resp.GeneratedImages) == 0 {
		return Image{}, NewError(KindContentBlocked, AdapterImagen, "no image returned, likely filtered", nil)
	}

	gi := resp.GeneratedImages[0]
	if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
		if gi.RAIFilteredReason != "" {
			return Image{}, NewError(KindContentBlocked, AdapterImagen, gi.RAIFilteredReason, nil)
		}
		return Image{}, NewError(KindUnexpectedResponse, AdapterImagen, "image payload missing", nil)
	}

	mime := gi.Image.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return Image{Data: gi.Image.ImageBytes, MIMEType: mime}, nil
}
