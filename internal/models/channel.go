// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the core types shared by the generation pipeline,
// the credential store and the HTTP layer.
package models

import "fmt"

// Channel identifies one marketing surface. The set is closed.
type Channel string

const (
	ChannelInstagram      Channel = "instagram"
	ChannelFacebook       Channel = "facebook"
	ChannelWhatsApp       Channel = "whatsapp"
	ChannelGoogleBusiness Channel = "google_business"
	ChannelBlogIdea       Channel = "blog_idea"
	ChannelAdCopy         Channel = "ad_copy"
	ChannelImagePrompt    Channel = "image_prompt"
	ChannelVideoScript    Channel = "video_script"
	ChannelGeneratedImage Channel = "generated_image"
)

// allChannels is the display order used everywhere a channel list is rendered.
var allChannels = []Channel{
	ChannelInstagram,
	ChannelFacebook,
	ChannelWhatsApp,
	ChannelGoogleBusiness,
	ChannelBlogIdea,
	ChannelAdCopy,
	ChannelImagePrompt,
	ChannelGeneratedImage,
	ChannelVideoScript,
}

var channelLabels = map[Channel]string{
	ChannelInstagram:      "Instagram Post",
	ChannelFacebook:       "Facebook Post",
	ChannelWhatsApp:       "WhatsApp Message",
	ChannelGoogleBusiness: "Google Business Profile Update",
	ChannelBlogIdea:       "Blog Post Idea",
	ChannelAdCopy:         "Ad Copy (Google & Facebook)",
	ChannelImagePrompt:    "Image Prompt",
	ChannelGeneratedImage: "Generated Image",
	ChannelVideoScript:    "Video Script (30-60s Reel/Short)",
}

// Platform is a place where content for a channel is usually published.
type Platform struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

var channelPlatforms = map[Channel][]Platform{
	ChannelInstagram:      {{Name: "Instagram", URL: "https://www.instagram.com/"}},
	ChannelFacebook:       {{Name: "Facebook", URL: "https://www.facebook.com/"}},
	ChannelWhatsApp:       {{Name: "WhatsApp Web", URL: "https://web.whatsapp.com/"}},
	ChannelGoogleBusiness: {{Name: "Google Business", URL: "https://business.google.com/"}},
	ChannelBlogIdea:       {{Name: "HubSpot", URL: "https://app.hubspot.com/"}},
	ChannelAdCopy: {
		{Name: "Facebook Ads", URL: "https://www.facebook.com/adsmanager/"},
		{Name: "Google Ads", URL: "https://ads.google.com/"},
	},
	ChannelGeneratedImage: {{Name: "Canva", URL: "https://www.canva.com/"}},
	ChannelVideoScript:    {{Name: "Instagram Reels", URL: "https://www.instagram.com/"}},
}

// AllChannels returns every channel in display order.
func AllChannels() []Channel {
	out := make([]Channel, len(allChannels))
	copy(out, allChannels)
	return out
}

// TextChannels returns every channel except the dependent image channel.
func TextChannels() []Channel {
	out := make([]Channel, 0, len(allChannels)-1)
	for _, c := range allChannels {
		if c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// ParseChannel converts a string into a known Channel.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if _, ok := channelLabels[c]; !ok {
		return "", fmt.Errorf("unknown channel %q", s)
	}
	return c, nil
}

// IsText reports whether the channel produces text (everything but the image).
func (c Channel) IsText() bool {
	return c != ChannelGeneratedImage
}

// Label returns the human-readable channel name.
func (c Channel) Label() string {
	if l, ok := channelLabels[c]; ok {
		return l
	}
	return string(c)
}

// Platforms returns the publish destinations suggested for the channel.
func (c Channel) Platforms() []Platform {
	return channelPlatforms[c]
}
