// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prompt turns generation parameters into the provider-neutral
// prompt text for each text channel. Wording is data, loaded from an
// embedded YAML policy; assembly is pure and deterministic.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"medigenius/internal/models"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// ErrNotTextChannel is returned when a prompt is requested for the image channel.
var ErrNotTextChannel = errors.New("prompt: channel does not take a text prompt")

// ChannelTemplate is the structure requested for one channel.
type ChannelTemplate struct {
	Task   string   `yaml:"task"`
	Points []string `yaml:"points"`
}

// Intent is one entry of the marketing intent catalog.
type Intent struct {
	ID           string   `yaml:"id" json:"id"`
	Category     string   `yaml:"category" json:"category"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Outcomes     []string `yaml:"target_outcomes" json:"target_outcomes"`
	ContentTypes []string `yaml:"content_types" json:"content_types"`
	Urgency      string   `yaml:"urgency" json:"urgency"`
	Seasonality  string   `yaml:"seasonality" json:"seasonality,omitempty"`
	Compliance   []string `yaml:"compliance" json:"compliance"`
}

// Policy holds all prompt wording.
type Policy struct {
	Intro      string                             `yaml:"intro"`
	Guidelines []string                           `yaml:"guidelines"`
	Disclaimer string                             `yaml:"disclaimer"`
	Intents    []Intent                           `yaml:"intents"`
	Channels   map[models.Channel]ChannelTemplate `yaml:"channels"`
	ImageStyle string                             `yaml:"image_style"`
}

// ParsePolicy decodes a YAML policy and checks that every text channel has
// a template.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("prompt: parse policy: %w", err)
	}
	if strings.TrimSpace(p.Disclaimer) == "" {
		return nil, errors.New("prompt: policy has no disclaimer")
	}
	for _, c := range models.TextChannels() {
		t, ok := p.Channels[c]
		if !ok || strings.TrimSpace(t.Task) == "" {
			return nil, fmt.Errorf("prompt: policy has no template for channel %q", c)
		}
	}
	seen := make(map[string]bool, len(p.Intents))
	for _, in := range p.Intents {
		if in.ID == "" || strings.TrimSpace(in.Title) == "" {
			return nil, errors.New("prompt: intent needs an id and a title")
		}
		if seen[in.ID] {
			return nil, fmt.Errorf("prompt: duplicate intent %q", in.ID)
		}
		seen[in.ID] = true
	}
	if strings.Count(p.ImageStyle, "%s") != 2 {
		return nil, errors.New("prompt: image_style must have two %s verbs")
	}
	return &p, nil
}

var defaultPolicy = mustParse(defaultPolicyYAML)

func mustParse(data []byte) *Policy {
	p, err := ParsePolicy(data)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() *Policy { return defaultPolicy }

// BuildPrompt assembles the prompt for channel using the embedded policy.
func BuildPrompt(params models.GenerationParams, channel models.Channel) (string, error) {
	return defaultPolicy.Build(params, channel)
}

// Intent looks up a catalog entry by id.
func (p *Policy) Intent(id string) (Intent, bool) {
	for _, in := range p.Intents {
		if in.ID == id {
			return in, true
		}
	}
	return Intent{}, false
}

// Validate checks the required fields and, when set, that the intent is in
// the catalog. Both failures are *models.ValidationError.
func (p *Policy) Validate(params models.GenerationParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	id := params.Normalized().Intent
	if id == "" {
		return nil
	}
	if _, ok := p.Intent(id); !ok {
		return &models.ValidationError{
			Fields: []string{"intent"},
			Msg:    fmt.Sprintf("unknown marketing intent %q", id),
		}
	}
	return nil
}

// Build assembles the prompt: role intro, context block, optional marketing
// intent, guidelines, channel structure and the compliance disclaimer, in
// that order.
func (p *Policy) Build(params models.GenerationParams, channel models.Channel) (string, error) {
	if err := p.Validate(params); err != nil {
		return "", err
	}
	if !channel.IsText() {
		return "", ErrNotTextChannel
	}
	tmpl, ok := p.Channels[channel]
	if !ok {
		return "", fmt.Errorf("prompt: no template for channel %q", channel)
	}

	params = params.Normalized()

	var b strings.Builder
	b.WriteString(p.Intro)
	b.WriteString("\n\nContext:\n")
	fmt.Fprintf(&b, "- Medical Specialty: %s\n", params.Specialty)
	fmt.Fprintf(&b, "- Location: %s\n", params.Location)
	fmt.Fprintf(&b, "- Target Audience: %s\n", params.TargetAudience)
	if params.Topic != "" {
		fmt.Fprintf(&b, "- Topic/Theme: %s\n", params.Topic)
	}
	if params.Tone != "" {
		fmt.Fprintf(&b, "- Desired Tone: %s\n", params.Tone)
	}

	if in, ok := p.Intent(params.Intent); ok {
		b.WriteString("\nMarketing Intent:\n")
		fmt.Fprintf(&b, "- Category: %s\n", in.Category)
		fmt.Fprintf(&b, "- Goal: %s\n", in.Title)
		fmt.Fprintf(&b, "- Description: %s\n", in.Description)
		fmt.Fprintf(&b, "- Target Outcomes: %s\n", strings.Join(in.Outcomes, ", "))
		fmt.Fprintf(&b, "- Content Types: %s\n", strings.Join(in.ContentTypes, ", "))
		fmt.Fprintf(&b, "- Urgency: %s\n", in.Urgency)
		if in.Seasonality != "" {
			fmt.Fprintf(&b, "- Seasonality: %s\n", in.Seasonality)
		}
		fmt.Fprintf(&b, "- Compliance: %s\n", strings.Join(in.Compliance, ", "))
	}

	if len(p.Guidelines) > 0 {
		b.WriteString("\nGuidelines:\n")
		for _, g := range p.Guidelines {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	b.WriteString("\n")
	b.WriteString(tmpl.Task)
	b.WriteString("\n")
	for _, pt := range tmpl.Points {
		fmt.Fprintf(&b, "- %s\n", pt)
	}

	b.WriteString("\n")
	b.WriteString(p.Disclaimer)
	return b.String(), nil
}

// ImageStylePrompt wraps an image prompt in the healthcare styling used by
// the free image generator. An empty style means "realistic".
func ImageStylePrompt(text, style string) string {
	return defaultPolicy.ImageStylePrompt(text, style)
}

// ImageStylePrompt is the Policy-bound form of the package function.
func (p *Policy) ImageStylePrompt(text, style string) string {
	if style == "" {
		style = "realistic"
	}
	return fmt.Sprintf(p.ImageStyle, strings.TrimSpace(text), style)
}
