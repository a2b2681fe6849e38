// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"medigenius/internal/ai"
	"medigenius/internal/cache"
	"medigenius/internal/credentials"
	"medigenius/internal/fallback"
	"medigenius/internal/generation"
	"medigenius/internal/middleware"
	"medigenius/internal/models"
	"medigenius/internal/prompt"
)

// Studio groups the content generation endpoints and the per-user
// credential settings they depend on.
type Studio struct {
	gen   *generation.Service
	creds *credentials.Store
	usage *cache.Usage
}

// NewStudio creates a new Studio handler group. usage may be nil.
func NewStudio(gen *generation.Service, creds *credentials.Store, usage *cache.Usage) *Studio {
	return &Studio{gen: gen, creds: creds, usage: usage}
}

// --- Channels ---

type channelInfo struct {
	ID        models.Channel    `json:"id"`
	Label     string            `json:"label"`
	Kind      fallback.Kind     `json:"kind"`
	Platforms []models.Platform `json:"platforms,omitempty"`
}

// Channels lists every output channel in display order, with the places
// a user can publish each one, plus the marketing intents a run can target.
func (s *Studio) Channels(w http.ResponseWriter, r *http.Request) {
	out := make([]channelInfo, 0, len(models.AllChannels()))
	for _, ch := range models.AllChannels() {
		kind := fallback.KindText
		if !ch.IsText() {
			kind = fallback.KindImage
		}
		out = append(out, channelInfo{ID: ch, Label: ch.Label(), Kind: kind, Platforms: ch.Platforms()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels":   out,
		"intents":    prompt.DefaultPolicy().Intents,
		"disclaimer": prompt.DefaultPolicy().Disclaimer,
	})
}

// --- Credentials ---

// GetCredentials returns the caller's stored keys, masked.
func (s *Studio) GetCredentials(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	set := s.creds.Get(r.Context(), sess.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"credentials": set.Masked(),
		"configured":  set.HasAny(),
	})
}

// PutCredentials replaces the caller's stored keys. Omitted keys are
// cleared; sending a masked value back keeps the stored key.
func (s *Studio) PutCredentials(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var in models.CredentialSet
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in = keepMasked(in.Trimmed(), s.creds.Get(r.Context(), sess.Email))

	if err := s.creds.Save(r.Context(), sess.Email, in); err != nil {
		slog.Error("save credentials failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"credentials": in.Masked(),
		"configured":  in.HasAny(),
	})
}

// DeleteCredentials removes every stored key for the caller along with
// today's usage counters.
func (s *Studio) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if err := s.creds.Clear(r.Context(), sess.Email); err != nil {
		slog.Error("clear credentials failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not clear credentials")
		return
	}
	if s.usage != nil {
		s.usage.Reset(r.Context(), sess.Email)
	}
	w.WriteHeader(http.StatusNoContent)
}

type planInfo struct {
	Channel models.Channel `json:"channel"`
	Kind    fallback.Kind  `json:"kind"`
	Steps   []ai.AdapterID `json:"steps,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type limitInfo struct {
	ai.AdvisoryLimit
	UsedToday int64 `json:"used_today"`
}

// CredentialStatus shows which adapters each channel would try with the
// caller's current keys, plus advisory free-tier limits and today's use.
func (s *Studio) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	snapshot := s.gen.Snapshot(s.creds.Get(r.Context(), sess.Email))

	plans := make([]planInfo, 0, len(models.AllChannels()))
	for _, ch := range models.AllChannels() {
		p, err := fallback.PlanFor(snapshot, ch)
		info := planInfo{Channel: ch, Kind: p.Kind, Steps: p.Steps}
		if err != nil {
			info.Kind = fallback.KindText
			info.Error = err.Error()
		}
		plans = append(plans, info)
	}

	var used map[string]int64
	if s.usage != nil {
		used = s.usage.Today(r.Context(), sess.Email)
	}
	limits := make([]limitInfo, 0, len(ai.AdvisoryLimits()))
	for _, l := range ai.AdvisoryLimits() {
		limits = append(limits, limitInfo{AdvisoryLimit: l, UsedToday: used[string(l.Adapter)]})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"can_generate": snapshot.HasTextCapable(),
		"plans":        plans,
		"limits":       limits,
	})
}

type checkRequest struct {
	// Credentials, when any key is set, are checked instead of the stored
	// set, so keys can be tried before they are saved.
	Credentials *models.CredentialSet `json:"credentials,omitempty"`
}

// CheckCredentials makes one cheap live call per configured adapter and
// reports success, error (with the error kind) or warning for each.
func (s *Studio) CheckCredentials(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	sess := middleware.SessionFromCtx(r.Context())

	results, err := s.gen.CheckCredentials(r.Context(), s.credentialsFor(r, sess.Email, req.Credentials))
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checks": results})
}

// --- Generation ---

type generateRequest struct {
	Params models.GenerationParams `json:"params"`
	// Credentials, when any key is set, are used for this request only
	// instead of the stored set.
	Credentials *models.CredentialSet `json:"credentials,omitempty"`
}

type retryRequest struct {
	generateRequest
	ImagePrompt string `json:"image_prompt,omitempty"`
}

// Generate runs one generation across every channel.
func (s *Studio) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	set, err := s.gen.RunGeneration(r.Context(), req.Params, s.credentialsFor(r, sess.Email, req.Credentials))
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	s.recordUsage(r, sess.Email, set.Items()...)

	writeJSON(w, http.StatusOK, map[string]any{"items": set.Items()})
}

// Retry re-runs a single channel. The image channel takes the prompt to
// render in image_prompt; text channels take params.
func (s *Studio) Retry(w http.ResponseWriter, r *http.Request) {
	ch, err := models.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req retryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := middleware.SessionFromCtx(r.Context())

	item, err := s.gen.RetryChannel(r.Context(), req.Params, s.credentialsFor(r, sess.Email, req.Credentials), ch, req.ImagePrompt)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	s.recordUsage(r, sess.Email, item)

	writeJSON(w, http.StatusOK, item)
}

func (s *Studio) credentialsFor(r *http.Request, owner string, override *models.CredentialSet) models.CredentialSet {
	if override != nil && override.HasAny() {
		return *override
	}
	return s.creds.Get(r.Context(), owner)
}

func (s *Studio) recordUsage(r *http.Request, owner string, items ...models.ContentItem) {
	if s.usage == nil {
		return
	}
	var adapters []string
	for _, item := range items {
		if item.GeneratedBy == "" || item.GeneratedBy == string(ai.AdapterPlaceholder) {
			continue
		}
		adapters = append(adapters, item.GeneratedBy)
	}
	s.usage.Record(r.Context(), owner, adapters...)
}

// writeGenerationError maps run-level failures to HTTP responses.
func writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	switch ai.KindOf(err) {
	case ai.KindValidation:
		body := errorBody{Error: err.Error(), Kind: string(ai.KindValidation)}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			body.Fields = ve.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case ai.KindNoCredential:
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: string(ai.KindNoCredential)})
	default:
		slog.Error("generation failed", "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		writeError(w, http.StatusInternalServerError, "generation failed, please try again")
	}
}

// keepMasked substitutes the stored key wherever the client echoed back a
// masked value it received from GetCredentials.
func keepMasked(in, stored models.CredentialSet) models.CredentialSet {
	masked := stored.Masked()
	pick := func(v, m, s string) string {
		if v != "" && v == m {
			return s
		}
		return v
	}
	return models.CredentialSet{
		PrimaryKey:       pick(in.PrimaryKey, masked.PrimaryKey, stored.PrimaryKey),
		FastTextKey:      pick(in.FastTextKey, masked.FastTextKey, stored.FastTextKey),
		VersatileTextKey: pick(in.VersatileTextKey, masked.VersatileTextKey, stored.VersatileTextKey),
		StockPhotoKey:    pick(in.StockPhotoKey, masked.StockPhotoKey, stored.StockPhotoKey),
	}
}
