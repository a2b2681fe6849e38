// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
)

// GenerationParams is the immutable input to one generation run.
type GenerationParams struct {
	Specialty      string `json:"specialty"`
	Location       string `json:"location"`
	TargetAudience string `json:"target_audience"`
	Topic          string `json:"topic,omitempty"`
	Tone           string `json:"tone,omitempty"`
	// Intent optionally names a marketing intent from the prompt policy's
	// catalog, such as "appointment_booking".
	Intent string `json:"intent,omitempty"`
}

// ValidationError lists the fields that were missing or invalid. Msg, when
// set, replaces the default "missing required fields" message.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (p GenerationParams) Normalized() GenerationParams {
	return GenerationParams{
		Specialty:      strings.TrimSpace(p.Specialty),
		Location:       strings.TrimSpace(p.Location),
		TargetAudience: strings.TrimSpace(p.TargetAudience),
		Topic:          strings.TrimSpace(p.Topic),
		Tone:           strings.TrimSpace(p.Tone),
		Intent:         strings.ToLower(strings.TrimSpace(p.Intent)),
	}
}

// Validate returns a *ValidationError when specialty, location or target
// audience is blank.
func (p GenerationParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Specialty) == "" {
		missing = append(missing, "specialty")
	}
	if strings.TrimSpace(p.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(p.TargetAudience) == "" {
		missing = append(missing, "target_audience")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
