// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"medigenius/internal/generation"
	"medigenius/internal/models"
)

// Environment variables the generate command reads keys from. Keys are
// never accepted as flags so they stay out of shell history.
const (
	envPrimaryKey   = "MEDIGENIUS_PRIMARY_KEY"
	envFastKey      = "MEDIGENIUS_FAST_KEY"
	envVersatileKey = "MEDIGENIUS_VERSATILE_KEY"
	envStockKey     = "MEDIGENIUS_STOCK_KEY"
)

type generateFlags struct {
	params  models.GenerationParams
	channel string
	prompt  string
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation and print the results as JSON",
		Long: `Run one generation locally and print every channel's result as JSON.

Provider keys are read from the environment:
  MEDIGENIUS_PRIMARY_KEY    Gemini / Imagen (falls back to GEMINI_API_KEY)
  MEDIGENIUS_FAST_KEY       Groq
  MEDIGENIUS_VERSATILE_KEY  OpenRouter
  MEDIGENIUS_STOCK_KEY      Unsplash

With --channel only that channel is run, as a manual retry would.`,
		Example: `  medigenius generate --specialty Cardiology --location Pune --audience "Adults over 40"
  medigenius generate --channel generated_image --image-prompt "calm clinic waiting room"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := setup()
			if err != nil {
				return err
			}
			defer flush()

			svc := generation.NewService(generation.NewClientFactory(cfg.AIOptions()), generation.Config{
				DefaultPrimaryKey: cfg.GeminiAPIKey,
			})
			return runGenerate(cmd, svc, f, credentialsFromEnv())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.params.Specialty, "specialty", "", "medical specialty (required)")
	fl.StringVar(&f.params.Location, "location", "", "practice location (required)")
	fl.StringVar(&f.params.TargetAudience, "audience", "", "target audience (required)")
	fl.StringVar(&f.params.Topic, "topic", "", "optional topic")
	fl.StringVar(&f.params.Tone, "tone", "", "optional tone, e.g. warm, authoritative")
	fl.StringVar(&f.params.Intent, "intent", "", "optional marketing intent, e.g. appointment_booking")
	fl.StringVar(&f.channel, "channel", "", "run a single channel only")
	fl.StringVar(&f.prompt, "image-prompt", "", "prompt to render with --channel generated_image")
	return cmd
}

func runGenerate(cmd *cobra.Command, svc *generation.Service, f generateFlags, creds models.CredentialSet) error {
	if f.channel == "" {
		set, err := svc.RunGeneration(cmd.Context(), f.params, creds)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), map[string]any{"items": set.Items()})
	}

	ch, err := models.ParseChannel(f.channel)
	if err != nil {
		return err
	}
	if ch == models.ChannelGeneratedImage && f.prompt == "" {
		return fmt.Errorf("--image-prompt is required with --channel %s", ch)
	}
	item, err := svc.RetryChannel(cmd.Context(), f.params, creds, ch, f.prompt)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), item)
}

func credentialsFromEnv() models.CredentialSet {
	return models.CredentialSet{
		PrimaryKey:       os.Getenv(envPrimaryKey),
		FastTextKey:      os.Getenv(envFastKey),
		VersatileTextKey: os.Getenv(envVersatileKey),
		StockPhotoKey:    os.Getenv(envStockKey),
	}.Trimmed()
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
