// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medigenius/internal/access"
	"medigenius/internal/cache"
	"medigenius/internal/credentials"
	"medigenius/internal/database"
	"medigenius/internal/generation"
	"medigenius/internal/handlers"
	"medigenius/internal/identity"
	"medigenius/internal/middleware"
	"medigenius/internal/router"
	"medigenius/internal/session"
	"medigenius/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	valkey, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkey.Close()

	verifier, err := identity.NewVerifier(identity.Config{
		HMACSecret:   cfg.IdentityJWTSecret,
		RSAPublicPEM: cfg.IdentityJWTPublicKey,
		Issuer:       cfg.IdentityIssuer,
		Audience:     cfg.IdentityAudience,
	})
	if err != nil {
		return fmt.Errorf("identity verifier: %w", err)
	}

	var sealer *credentials.Sealer
	if cfg.CredentialsSecret != "" {
		if sealer, err = credentials.NewSealer(cfg.CredentialsSecret); err != nil {
			return err
		}
	} else {
		slog.Warn("CREDENTIALS_SECRET not set, stored API keys are not encrypted")
	}

	// Cookies are Secure everywhere but local development.
	secure := !cfg.IsDev()

	sessions := session.NewStore(valkey, secure)
	whitelist := store.NewWhitelistStore(db)
	gate := access.NewGate(whitelist, cfg.AdminEmails)

	gen := generation.NewService(generation.NewClientFactory(cfg.AIOptions()), generation.Config{
		DefaultPrimaryKey: cfg.GeminiAPIKey,
	})

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	limiter := middleware.NewRateLimiter(cfg.SignInRateLimit, time.Minute)
	limiter.TrustProxies(proxies)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Sessions:      sessions,
		Gate:          gate,
		CSRF:          middleware.NewCSRF(secure),
		SignInLimiter: limiter,
		Auth:          handlers.NewAuth(verifier, sessions, gate),
		Studio:        handlers.NewStudio(gen, credentials.NewStore(valkey, sealer), cache.NewUsage(valkey)),
		Admin:         handlers.NewAdmin(whitelist),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      runWriteTimeout(cfg.AdapterTimeout),
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// runWriteTimeout covers a fully degraded run: up to three text adapters in
// sequence on the slowest channel, then imagen, pollinations and unsplash,
// each bounded by the adapter timeout, plus headroom for the response.
func runWriteTimeout(adapterTimeout time.Duration) time.Duration {
	const sequentialAdapters = 6
	return sequentialAdapters*adapterTimeout + 30*time.Second
}
