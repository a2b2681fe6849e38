// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "strings"

// CredentialSet holds the user's own provider API keys. Empty strings mean
// "not configured".
type CredentialSet struct {
	PrimaryKey       string `json:"primary_key,omitempty"`
	FastTextKey      string `json:"fast_text_key,omitempty"`
	VersatileTextKey string `json:"versatile_text_key,omitempty"`
	StockPhotoKey    string `json:"stock_photo_key,omitempty"`
}

// Trimmed returns a copy with whitespace stripped from every key.
func (c CredentialSet) Trimmed() CredentialSet {
	return CredentialSet{
		PrimaryKey:       strings.TrimSpace(c.PrimaryKey),
		FastTextKey:      strings.TrimSpace(c.FastTextKey),
		VersatileTextKey: strings.TrimSpace(c.VersatileTextKey),
		StockPhotoKey:    strings.TrimSpace(c.StockPhotoKey),
	}
}

// HasAny reports whether at least one key is configured.
func (c CredentialSet) HasAny() bool {
	t := c.Trimmed()
	return t.PrimaryKey != "" || t.FastTextKey != "" || t.VersatileTextKey != "" || t.StockPhotoKey != ""
}

// HasTextCapable reports whether any key can serve text channels.
// The stock photo key alone cannot.
func (c CredentialSet) HasTextCapable() bool {
	t := c.Trimmed()
	return t.PrimaryKey != "" || t.FastTextKey != "" || t.VersatileTextKey != ""
}

// WithDefaultPrimary fills an empty primary key from a server-side default.
func (c CredentialSet) WithDefaultPrimary(key string) CredentialSet {
	if strings.TrimSpace(c.PrimaryKey) == "" {
		c.PrimaryKey = key
	}
	return c
}

// Masked returns a copy safe to send back to a browser: every configured key
// is reduced to its last four characters.
func (c CredentialSet) Masked() CredentialSet {
	return CredentialSet{
		PrimaryKey:       maskKey(c.PrimaryKey),
		FastTextKey:      maskKey(c.FastTextKey),
		VersatileTextKey: maskKey(c.VersatileTextKey),
		StockPhotoKey:    maskKey(c.StockPhotoKey),
	}
}

func maskKey(k string) string {
	k = strings.TrimSpace(k)
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}
