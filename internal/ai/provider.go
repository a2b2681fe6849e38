// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai wraps every external generation service behind two small
// interfaces, TextGenerator and ImageGenerator. Adapters are bound to a
// single credential at construction and are grouped per request in a
// Clients handle built from one CredentialSet snapshot.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medigenius/internal/models"
)

// AdapterID names one provider adapter.
type AdapterID string

const (
	AdapterGemini       AdapterID = "gemini"
	AdapterImagen       AdapterID = "imagen"
	AdapterGroq         AdapterID = "groq"
	AdapterOpenRouter   AdapterID = "openrouter"
	AdapterPollinations AdapterID = "pollinations"
	AdapterUnsplash     AdapterID = "unsplash"
	AdapterPlaceholder  AdapterID = "placeholder"
)

// TextGenerator produces text from a fully assembled prompt.
type TextGenerator interface {
	Name() AdapterID
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator produces one image from a prompt.
type ImageGenerator interface {
	Name() AdapterID
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// Image is raw image bytes with their MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Options configures endpoints, models and timeouts for the adapters.
// Zero fields fall back to DefaultOptions.
type Options struct {
	GeminiBaseURL       string
	GeminiModel         string
	ImagenModel         string
	GroqBaseURL         string
	GroqModel           string
	OpenRouterBaseURL   string
	OpenRouterModel     string
	PollinationsBaseURL string
	UnsplashBaseURL     string

	// Timeout bounds a single adapter call.
	Timeout time.Duration

	// HTTPClient is shared by every adapter. Nil means a fresh client.
	HTTPClient *http.Client
}

// DefaultOptions returns production endpoints and models.
func DefaultOptions() Options {
	return Options{
		GeminiBaseURL:       "https://generativelanguage.googleapis.com",
		GeminiModel:         "gemini-2.5-flash",
		ImagenModel:         "imagen-3.0-generate-002",
		GroqBaseURL:         "https://api.groq.com/openai/v1",
		GroqModel:           "llama-3.3-70b-versatile",
		OpenRouterBaseURL:   "https://openrouter.ai/api/v1",
		OpenRouterModel:     "meta-llama/llama-3.3-70b-instruct",
		PollinationsBaseURL: "https://image.pollinations.ai",
		UnsplashBaseURL:     "https://api.unsplash.com",
		Timeout:             60 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	set := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	set(&o.GeminiBaseURL, d.GeminiBaseURL)
	set(&o.GeminiModel, d.GeminiModel)
	set(&o.ImagenModel, d.ImagenModel)
	set(&o.GroqBaseURL, d.GroqBaseURL)
	set(&o.GroqModel, d.GroqModel)
	set(&o.OpenRouterBaseURL, d.OpenRouterBaseURL)
	set(&o.OpenRouterModel, d.OpenRouterModel)
	set(&o.PollinationsBaseURL, d.PollinationsBaseURL)
	set(&o.UnsplashBaseURL, d.UnsplashBaseURL)
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}

// Clients is the set of adapters available for one CredentialSet snapshot.
// It is owned by the caller and never shared between runs.
type Clients struct {
	text    map[AdapterID]TextGenerator
	image   map[AdapterID]ImageGenerator
	timeout time.Duration
}

// NewClients builds an adapter for every configured credential plus the
// keyless image adapters (pollinations and placeholder).
func NewClients(ctx context.Context, creds models.CredentialSet, opts Options) (*Clients, error) {
	opts = opts.withDefaults()
	creds = creds.Trimmed()

	c := &Clients{
		text:    make(map[AdapterID]TextGenerator),
		image:   make(map[AdapterID]ImageGenerator),
		timeout: opts.Timeout,
	}

	if creds.PrimaryKey != "" {
		gc, err := newGenAIClient(ctx, creds.PrimaryKey, opts)
		if err != nil {
			return nil, fmt.Errorf("ai: gemini client: %w", err)
		}
		c.text[AdapterGemini] = &geminiText{client: gc, model: opts.GeminiModel}
		c.image[AdapterImagen] = &imagenImage{client: gc, model: opts.ImagenModel}
	}

	if creds.FastTextKey != "" {
		g, err := newChatCompletion(AdapterGroq, creds.FastTextKey, opts.GroqBaseURL, opts.GroqModel, opts)
		if err != nil {
			return nil, err
		}
		c.text[AdapterGroq] = g
	}

	if creds.VersatileTextKey != "" {
		g, err := newChatCompletion(AdapterOpenRouter, creds.VersatileTextKey, opts.OpenRouterBaseURL, opts.OpenRouterModel, opts)
		if err != nil {
			return nil, err
		}
		c.text[AdapterOpenRouter] = g
	}

	c.image[AdapterPollinations] = newPollinations(opts.PollinationsBaseURL, "realistic", opts.HTTPClient)

	if creds.StockPhotoKey != "" {
		u, err := newUnsplash(creds.StockPhotoKey, opts.UnsplashBaseURL, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		c.image[AdapterUnsplash] = u
	}

	c.image[AdapterPlaceholder] = Placeholder{}
	return c, nil
}

// NewClientsWith builds a Clients handle from already constructed adapters.
// Used by tests and by callers that bring their own implementations.
func NewClientsWith(timeout time.Duration, text []TextGenerator, image []ImageGenerator) *Clients {
	c := &Clients{
		text:    make(map[AdapterID]TextGenerator),
		image:   make(map[AdapterID]ImageGenerator),
		timeout: timeout,
	}
	for _, g := range text {
		c.text[g.Name()] = g
	}
	for _, g := range image {
		c.image[g.Name()] = g
	}
	if _, ok := c.image[AdapterPlaceholder]; !ok {
		c.image[AdapterPlaceholder] = Placeholder{}
	}
	return c
}

// HasText reports whether a text adapter is bound for id.
func (c *Clients) HasText(id AdapterID) bool {
	_, ok := c.text[id]
	return ok
}

// HasImage reports whether an image adapter is bound for id.
func (c *Clients) HasImage(id AdapterID) bool {
	_, ok := c.image[id]
	return ok
}

// GenerateText runs one text adapter with the per-call timeout. The result
// is trimmed; an empty result is reported as an unexpected response.
func (c *Clients) GenerateText(ctx context.Context, id AdapterID, prompt string) (string, error) {
	g, ok := c.text[id]
	if !ok {
		return "", NewError(KindMissingCredential, id, "adapter invoked without a credential", nil)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	text, err := g.GenerateText(ctx, prompt)
	if err != nil {
		return "", classify(id, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewError(KindUnexpectedResponse, id, "empty text in response", nil)
	}
	return text, nil
}

// GenerateImage runs one image adapter with the per-call timeout.
func (c *Clients) GenerateImage(ctx context.Context, id AdapterID, prompt string) (Image, error) {
	g, ok := c.image[id]
	if !ok {
		return Image{}, NewError(KindMissingCredential, id, "adapter invoked without a credential", nil)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	img, err := g.GenerateImage(ctx, prompt)
	if err != nil {
		return Image{}, classify(id, err)
	}
	if len(img.Data) == 0 {
		return Image{}, NewError(KindUnexpectedResponse, id, "empty image in response", nil)
	}
	return img, nil
}

func (c *Clients) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// AdvisoryLimit is a display-only daily allowance for a provider's free tier.
// Nothing enforces it.
type AdvisoryLimit struct {
	Adapter AdapterID `json:"adapter"`
	PerDay  int       `json:"per_day"`
	Note    string    `json:"note"`
}

// AdvisoryLimits returns the free-tier allowances shown to users.
func AdvisoryLimits() []AdvisoryLimit {
	return []AdvisoryLimit{
		{Adapter: AdapterGemini, PerDay: 20, Note: "Gemini generations"},
		{Adapter: AdapterGroq, PerDay: 30, Note: "Groq fast generations"},
		{Adapter: AdapterImagen, PerDay: 10, Note: "Image generations"},
	}
}
