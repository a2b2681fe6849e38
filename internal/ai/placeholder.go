package ai

import (
	"context"
	"fmt"
	"html"
	"unicode/utf8"
)

// NoPromptAvailable keys the placeholder used when there is no image prompt.
const NoPromptAvailable = "no prompt available"

// placeholderSnippetLen is the longest prompt excerpt drawn on a placeholder.
const placeholderSnippetLen = 40

// Placeholder renders a deterministic SVG card. It is the terminal image
// fallback and never returns an error.
type Placeholder struct{}

func (Placeholder) Name() AdapterID { return AdapterPlaceholder }

func (Placeholder) GenerateImage(_ context.Context, prompt string) (Image, error) {
	return PlaceholderImage(prompt), nil
}

// PlaceholderImage returns the 512x512 SVG for prompt.
func PlaceholderImage(prompt string) Image {
	svg := fmt.Sprintf(`<svg width="512" height="512" xmlns="http://www.w3.org/2000/svg">
  <rect width="512" height="512" fill="#e2e8f0"/>
  <rect x="50" y="50" width="412" height="412" fill="#cbd5e1" rx="20"/>
  <text x="256" y="200" font-family="Arial, sans-serif" font-size="24" fill="#475569" text-anchor="middle">Healthcare Image</text>
  <text x="256" y="240" font-family="Arial, sans-serif" font-size="16" fill="#64748b" text-anchor="middle">%s</text>
  <text x="256" y="320" font-family="Arial, sans-serif" font-size="14" fill="#94a3b8" text-anchor="middle">Generated by MediGenius</text>
</svg>`, html.EscapeString(PlaceholderSnippet(prompt)))

	return Image{Data: []byte(svg), MIMEType: "image/svg+xml"}
}

// PlaceholderSnippet shortens prompt to at most 40 characters, adding "..."
// when it was cut.
func PlaceholderSnippet(prompt string) string {
	if utf8.RuneCountInString(prompt) <= placeholderSnippetLen {
		return prompt
	}
	r := []rune(prompt)
	return string(r[:placeholderSnippetLen]) + "..."
}
