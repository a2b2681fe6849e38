package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"medigenius/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "medigenius",
		Short: "Healthcare marketing content generator",
		Long: `MediGenius turns a medical specialty, a location and a target audience
into ready-to-post marketing content for eight channels plus an image,
using the caller's own AI provider keys.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGenerateCmd(),
		newWhitelistCmd(),
	)
	return root
}

// setup installs the default logger, loads configuration and starts
// Sentry when a DSN is configured. The returned func flushes Sentry.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	flush := func() {}
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			Release:          "medigenius@" + version,
			AttachStacktrace: true,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = scrubHeaders(event.Request.Headers)
					event.Request.Data = ""
					event.Request.Cookies = ""
				}
				return event
			},
		}); err != nil {
			slog.Warn("sentry init failed", "error", err)
		} else {
			slog.Info("sentry enabled", "env", cfg.Env)
			flush = func() { sentry.Flush(2 * time.Second) }
		}
	}

	return cfg, flush, nil
}

// scrubHeaders drops headers that can carry credentials or identity tokens.
func scrubHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "Cookie", "X-Csrf-Token":
			continue
		}
		out[k] = v
	}
	return out
}
