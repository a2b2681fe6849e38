// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package credentials persists each user's own provider keys in Valkey.
// One serialized CredentialSet lives under one key per owner. Anything
// unreadable is treated as "no keys configured".
package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"medigenius/internal/models"
)

// keyPrefix namespaces credential keys in Valkey.
const keyPrefix = "credentials:"

// Store reads and writes CredentialSets.
type Store struct {
	client *redis.Client
	sealer *Sealer // nil stores plain JSON
}

// NewStore creates a credential store. A nil sealer stores plain JSON.
func NewStore(client *redis.Client, sealer *Sealer) *Store {
	return &Store{client: client, sealer: sealer}
}

func normalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

// storageKey hashes the owner so identities never appear in key names.
func storageKey(owner string) string {
	sum := sha256.Sum256([]byte(normalizeOwner(owner)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the owner's keys. Missing, malformed or undecryptable data
// yields an empty set; only the log records why.
func (s *Store) Get(ctx context.Context, owner string) models.CredentialSet {
	raw, err := s.client.Get(ctx, storageKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CredentialSet{}
	}
	if err != nil {
		slog.Warn("credentials: read failed", "error", err)
		return models.CredentialSet{}
	}

	if isSealed(raw) {
		if s.sealer == nil {
			slog.Warn("credentials: stored set is encrypted but no secret is configured")
			return models.CredentialSet{}
		}
		if raw, err = s.sealer.Open(raw, normalizeOwner(owner)); err != nil {
			slog.Warn("credentials: decrypt failed, ignoring stored set", "error", err)
			return models.CredentialSet{}
		}
	}

	var set models.CredentialSet
	if err := json.Unmarshal(raw, &set); err != nil {
		slog.Warn("credentials: malformed stored set, ignoring", "error", err)
		return models.CredentialSet{}
	}
	return set.Trimmed()
}

// Save replaces the owner's keys. An all-empty set clears them.
func (s *Store) Save(ctx context.Context, owner string, set models.CredentialSet) error {
	set = set.Trimmed()
	if !set.HasAny() {
		return s.Clear(ctx, owner)
	}

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("credentials marshal: %w", err)
	}
	if s.sealer != nil {
		if payload, err = s.sealer.Seal(payload, normalizeOwner(owner)); err != nil {
			return fmt.Errorf("credentials seal: %w", err)
		}
	}

	if err := s.client.Set(ctx, storageKey(owner), payload, 0).Err(); err != nil {
		return fmt.Errorf("credentials save: %w", err)
	}
	return nil
}

// Clear removes every key stored for the owner.
func (s *Store) Clear(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, storageKey(owner)).Err(); err != nil {
		return fmt.Errorf("credentials clear: %w", err)
	}
	return nil
}
