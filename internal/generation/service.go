// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generation runs one batch: every text channel concurrently, then
// the image channel from the image prompt's result. Adapter failures are
// recorded per channel and never abort the batch.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"medigenius/internal/ai"
	"medigenius/internal/fallback"
	"medigenius/internal/models"
	"medigenius/internal/prompt"
)

// ErrInternal marks a run aborted by a failure inside the orchestration
// itself rather than inside one channel.
var ErrInternal = errors.New("generation: internal failure")

// ClientFactory builds the adapter handle for one credential snapshot.
type ClientFactory func(ctx context.Context, creds models.CredentialSet) (*ai.Clients, error)

// NewClientFactory returns a ClientFactory backed by the real adapters.
func NewClientFactory(opts ai.Options) ClientFactory {
	return func(ctx context.Context, creds models.CredentialSet) (*ai.Clients, error) {
		return ai.NewClients(ctx, creds, opts)
	}
}

// Config holds optional Service settings.
type Config struct {
	// DefaultPrimaryKey is the server-side primary key used when the user
	// has not configured one. Empty disables it.
	DefaultPrimaryKey string

	// Policy overrides the embedded prompt policy.
	Policy *prompt.Policy

	Logger *slog.Logger
}

// Service runs generation batches. It is safe for concurrent use.
type Service struct {
	clients        ClientFactory
	policy         *prompt.Policy
	defaultPrimary string
	logger         *slog.Logger
}

// NewService creates a Service.
func NewService(clients ClientFactory, cfg Config) *Service {
	if cfg.Policy == nil {
		cfg.Policy = prompt.DefaultPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		clients:        clients,
		policy:         cfg.Policy,
		defaultPrimary: strings.TrimSpace(cfg.DefaultPrimaryKey),
		logger:         cfg.Logger,
	}
}

// Snapshot returns the credential set a run would actually use.
func (s *Service) Snapshot(creds models.CredentialSet) models.CredentialSet {
	return creds.Trimmed().WithDefaultPrimary(s.defaultPrimary)
}

// RunGeneration produces one ContentItem per channel. It returns an error
// (and no set) only for invalid params, a snapshot with no text-capable
// key, or an internal failure.
func (s *Service) RunGeneration(ctx context.Context, params models.GenerationParams, creds models.CredentialSet) (models.ContentSet, error) {
	if err := s.policy.Validate(params); err != nil {
		return nil, ai.NewError(ai.KindValidation, "", "invalid generation parameters", err)
	}
	params = params.Normalized()

	snapshot := s.Snapshot(creds)
	if !snapshot.HasTextCapable() {
		return nil, ai.NewError(ai.KindNoCredential, "",
			"no text-capable API key configured; add a primary, fast or versatile key", nil)
	}

	runID := uuid.New()
	log := s.logger.With("run_id", runID.String())
	start := time.Now()

	clients, err := s.clients(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: build clients: %v", ErrInternal, err)
	}

	channels := models.TextChannels()
	results := make([]models.ContentItem, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range channels {
		g.Go(func() (err error) {
			defer recoverTask(log, string(ch), &err)
			results[i] = s.runText(gctx, log, clients, params, snapshot, ch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := make(models.ContentSet, len(channels)+1)
	for _, item := range results {
		set[item.Channel] = item
	}

	imagePrompt, ok := set.Get(models.ChannelImagePrompt)
	image, err := s.safeImage(ctx, log, clients, snapshot, imagePrompt, ok)
	if err != nil {
		return nil, err
	}
	set[models.ChannelGeneratedImage] = image

	failed := 0
	for _, item := range set {
		if item.Failed() {
			failed++
		}
	}
	log.Info("generation run finished",
		"channels", len(set),
		"failed", failed,
		"duration", time.Since(start),
	)
	return set, nil
}

// RetryChannel re-runs a single channel's plan. For the image channel,
// imagePrompt is the prompt text to render; params are only needed for
// text channels.
func (s *Service) RetryChannel(ctx context.Context, params models.GenerationParams, creds models.CredentialSet, channel models.Channel, imagePrompt string) (item models.ContentItem, err error) {
	snapshot := s.Snapshot(creds)
	log := s.logger.With("retry_id", uuid.NewString(), "channel", string(channel))

	if channel.IsText() {
		if err := s.policy.Validate(params); err != nil {
			return models.ContentItem{}, ai.NewError(ai.KindValidation, "", "invalid generation parameters", err)
		}
		params = params.Normalized()
	}

	clients, err := s.clients(ctx, snapshot)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%w: build clients: %v", ErrInternal, err)
	}

	if !channel.IsText() {
		src := models.ContentItem{Channel: models.ChannelImagePrompt, Content: imagePrompt}
		return s.safeImage(ctx, log, clients, snapshot, src, true)
	}

	defer recoverTask(log, string(channel), &err)
	return s.runText(ctx, log, clients, params, snapshot, channel), nil
}

// CheckCredentials runs each adapter's live credential check against the
// snapshot the next run would use.
func (s *Service) CheckCredentials(ctx context.Context, creds models.CredentialSet) ([]ai.CheckResult, error) {
	clients, err := s.clients(ctx, s.Snapshot(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: build clients: %v", ErrInternal, err)
	}
	results := clients.Check(ctx)
	for _, r := range results {
		if r.Status == ai.CheckFailed {
			s.logger.Warn("credential check failed", "adapter", string(r.Adapter), "kind", string(r.Kind))
		}
	}
	return results, nil
}

// runText walks the channel's text plan until one adapter succeeds.
func (s *Service) runText(ctx context.Context, log *slog.Logger, clients *ai.Clients, params models.GenerationParams, creds models.CredentialSet, ch models.Channel) models.ContentItem {
	plan, err := fallback.TextPlan(creds, ch)
	if err != nil {
		return failedText(ch, err, nil)
	}

	text, err := s.policy.Build(params, ch)
	if err != nil {
		return failedText(ch, ai.NewError(ai.KindValidation, "", "build prompt", err), nil)
	}

	var (
		lastErr  error
		attempts []string
	)
	for _, id := range plan.Steps {
		start := time.Now()
		attempts = append(attempts, string(id))

		out, err := clients.GenerateText(ctx, id, text)
		if err == nil {
			log.Info("channel generated",
				"channel", string(ch),
				"adapter", string(id),
				"duration", time.Since(start),
			)
			item := models.ContentItem{Channel: ch, Content: out, GeneratedBy: string(id)}
			if lastErr != nil {
				item.Metadata = map[string]string{"fallback_reason": lastErr.Error()}
			}
			return item
		}

		log.Warn("text adapter failed",
			"channel", string(ch),
			"adapter", string(id),
			"kind", string(ai.KindOf(err)),
			"duration", time.Since(start),
			"error", err,
		)
		lastErr = err
	}

	return failedText(ch, lastErr, attempts)
}

func failedText(ch models.Channel, err error, attempts []string) models.ContentItem {
	meta := map[string]string{"error_kind": string(ai.KindOf(err))}
	if len(attempts) > 0 {
		meta["attempts"] = strings.Join(attempts, ",")
	}
	return models.ContentItem{
		Channel:  ch,
		Content:  fmt.Sprintf("Could not generate content for %s. %s", ch.Label(), err),
		Error:    err.Error(),
		Metadata: meta,
	}
}

// safeImage runs the image step with panic recovery.
func (s *Service) safeImage(ctx context.Context, log *slog.Logger, clients *ai.Clients, creds models.CredentialSet, src models.ContentItem, present bool) (item models.ContentItem, err error) {
	defer recoverTask(log, string(models.ChannelGeneratedImage), &err)
	return s.runImage(ctx, log, clients, creds, src, present), nil
}

// runImage walks the image plan. The chain ends with the placeholder, so
// the returned item always carries an image.
func (s *Service) runImage(ctx context.Context, log *slog.Logger, clients *ai.Clients, creds models.CredentialSet, src models.ContentItem, present bool) models.ContentItem {
	if !present || src.Failed() || strings.TrimSpace(src.Content) == "" {
		reason := src.Error
		if reason == "" {
			reason = "image prompt was empty"
		}
		img := ai.PlaceholderImage(ai.NoPromptAvailable)
		log.Warn("image generation skipped", "reason", reason)
		return models.ContentItem{
			Channel:     models.ChannelGeneratedImage,
			Content:     img.Base64(),
			MIMEType:    img.MIMEType,
			GeneratedBy: string(ai.AdapterPlaceholder),
			Error:       "Skipped due to image prompt error: " + reason,
		}
	}

	plan := fallback.ImagePlan(creds)
	var lastErr error
	for _, id := range plan.Steps {
		start := time.Now()
		img, err := clients.GenerateImage(ctx, id, src.Content)
		if err == nil {
			log.Info("image generated",
				"adapter", string(id),
				"mime", img.MIMEType,
				"duration", time.Since(start),
			)
			item := models.ContentItem{
				Channel:     models.ChannelGeneratedImage,
				Content:     img.Base64(),
				MIMEType:    img.MIMEType,
				GeneratedBy: string(id),
			}
			if lastErr != nil {
				item.Metadata = map[string]string{"fallback_reason": lastErr.Error()}
			}
			return item
		}

		log.Warn("image adapter failed",
			"adapter", string(id),
			"kind", string(ai.KindOf(err)),
			"duration", time.Since(start),
			"error", err,
		)
		lastErr = err
	}

	// Only reachable if the placeholder was missing from the handle.
	img := ai.PlaceholderImage(src.Content)
	return models.ContentItem{
		Channel:     models.ChannelGeneratedImage,
		Content:     img.Base64(),
		MIMEType:    img.MIMEType,
		GeneratedBy: string(ai.AdapterPlaceholder),
	}
}

// recoverTask turns a panic in a task into a run-level ErrInternal.
func recoverTask(log *slog.Logger, task string, err *error) {
	if r := recover(); r != nil {
		log.Error("panic in generation task",
			"task", task,
			"panic", r,
			"stack", string(debug.Stack()),
		)
		*err = fmt.Errorf("%w: panic in %s: %v", ErrInternal, task, r)
	}
}
