// Package fallback decides, from the credentials present, which adapters a
// channel will try and in what order. The tables below are the whole
// policy; nothing here performs I/O.
package fallback

import (
	"fmt"
	"strings"

	"medigenius/internal/ai"
	"medigenius/internal/models"
)

// Kind distinguishes text plans from the image plan.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Plan is the ordered adapter chain for one channel in one run.
type Plan struct {
	Channel models.Channel `json:"channel"`
	Kind    Kind           `json:"kind"`
	Steps   []ai.AdapterID `json:"steps"`
}

func (p Plan) String() string {
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = string(s)
	}
	return fmt.Sprintf("%s[%s]: %s", p.Channel, p.Kind, strings.Join(parts, " -> "))
}

// step pairs an adapter with the credential it needs. A nil requirement
// means the adapter is keyless.
type step struct {
	adapter  ai.AdapterID
	required func(models.CredentialSet) bool
}

func hasPrimary(c models.CredentialSet) bool   { return c.PrimaryKey != "" }
func hasFast(c models.CredentialSet) bool      { return c.FastTextKey != "" }
func hasVersatile(c models.CredentialSet) bool { return c.VersatileTextKey != "" }
func hasStock(c models.CredentialSet) bool     { return c.StockPhotoKey != "" }

// textChain is tried in order for every text channel. The primary provider
// always comes first when its key is present.
var textChain = []step{
	{ai.AdapterGemini, hasPrimary},
	{ai.AdapterGroq, hasFast},
	{ai.AdapterOpenRouter, hasVersatile},
}

// imageChain always ends with the placeholder, which needs no key and
// cannot fail.
var imageChain = []step{
	{ai.AdapterImagen, hasPrimary},
	{ai.AdapterPollinations, nil},
	{ai.AdapterUnsplash, hasStock},
	{ai.AdapterPlaceholder, nil},
}

func resolve(chain []step, creds models.CredentialSet) []ai.AdapterID {
	creds = creds.Trimmed()
	var out []ai.AdapterID
	for _, s := range chain {
		if s.required == nil || s.required(creds) {
			out = append(out, s.adapter)
		}
	}
	return out
}

// TextPlan returns the adapter chain for a text channel. It fails with an
// ai.KindNoCredential error when no text-capable key is configured.
func TextPlan(creds models.CredentialSet, channel models.Channel) (Plan, error) {
	if !channel.IsText() {
		return Plan{}, ai.NewError(ai.KindValidation, "", fmt.Sprintf("%s is not a text channel", channel), nil)
	}
	steps := resolve(textChain, creds)
	if len(steps) == 0 {
		return Plan{}, ai.NewError(ai.KindNoCredential, "",
			fmt.Sprintf("no text-capable API key configured for %s", channel.Label()), nil)
	}
	return Plan{Channel: channel, Kind: KindText, Steps: steps}, nil
}

// ImagePlan returns the adapter chain for the generated image channel.
// It never fails.
func ImagePlan(creds models.CredentialSet) Plan {
	return Plan{
		Channel: models.ChannelGeneratedImage,
		Kind:    KindImage,
		Steps:   resolve(imageChain, creds),
	}
}

// PlanFor returns the plan for any channel.
func PlanFor(creds models.CredentialSet, channel models.Channel) (Plan, error) {
	if channel.IsText() {
		return TextPlan(creds, channel)
	}
	return ImagePlan(creds), nil
}
