// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ContentItem is the outcome of one channel in one run. For the image
// channel Content holds a base64 image payload; for text channels it holds
// the generated text. A failed channel carries Error and a human-readable
// placeholder in Content, never partial provider output.
type ContentItem struct {
	Channel     Channel           `json:"channel"`
	Content     string            `json:"content"`
	Error       string            `json:"error,omitempty"`
	GeneratedBy string            `json:"generated_by,omitempty"`
	MIMEType    string            `json:"mime_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Failed reports whether the item carries an error.
func (i ContentItem) Failed() bool {
	return i.Error != ""
}

// ContentSet maps each channel to its item for one run.
type ContentSet map[Channel]ContentItem

// Get returns the item for a channel and whether it exists.
func (s ContentSet) Get(c Channel) (ContentItem, bool) {
	item, ok := s[c]
	return item, ok
}

// Channels returns the channels present in the set, in display order.
func (s ContentSet) Channels() []Channel {
	var out []Channel
	for _, c := range allChannels {
		if _, ok := s[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Items returns the items in display order.
func (s ContentSet) Items() []ContentItem {
	chans := s.Channels()
	out := make([]ContentItem, 0, len(chans))
	for _, c := range chans {
		out = append(out, s[c])
	}
	return out
}
