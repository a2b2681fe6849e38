// Package store provides database access for the allow-list. Each store
// struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"medigenius/internal/models"
)

var (
	// ErrInvalidEntry is returned when an entry names neither (or both) an
	// email and a domain, or names a malformed one.
	ErrInvalidEntry = errors.New("whitelist: entry needs exactly one valid email or domain")

	// ErrDuplicate is returned when an active entry already exists.
	ErrDuplicate = errors.New("whitelist: entry already active")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// WhitelistStore handles allow-list database operations.
type WhitelistStore struct {
	db *sql.DB
}

// NewWhitelistStore creates a new WhitelistStore with the given database connection.
func NewWhitelistStore(db *sql.DB) *WhitelistStore {
	return &WhitelistStore{db: db}
}

// IsListed reports whether email matches an active email entry or an
// active entry for its domain.
func (s *WhitelistStore) IsListed(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false, nil
	}
	domain := email[at+1:]

	var listed bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM whitelist
			WHERE is_active AND (lower(email) = $1 OR lower(domain) = $2)
		)
	`, email, domain).Scan(&listed)
	if err != nil {
		return false, fmt.Errorf("whitelist lookup: %w", err)
	}
	return listed, nil
}

// List returns all active entries, newest first.
func (s *WhitelistStore) List(ctx context.Context) ([]models.WhitelistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(domain, ''), added_by, added_at, is_active
		FROM whitelist WHERE is_active ORDER BY added_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list whitelist: %w", err)
	}
	defer rows.Close()

	var entries []models.WhitelistEntry
	for rows.Next() {
		var e models.WhitelistEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Domain, &e.AddedBy, &e.AddedAt, &e.Active); err != nil {
			return nil, fmt.Errorf("scan whitelist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Add inserts a new active entry. ID, AddedAt and Active are assigned here.
func (s *WhitelistStore) Add(ctx context.Context, entry models.WhitelistEntry) (*models.WhitelistEntry, error) {
	e, err := NormalizeEntry(entry)
	if err != nil {
		return nil, err
	}
	e.ID = uuid.New()
	e.AddedAt = time.Now().UTC()
	e.Active = true

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO whitelist (id, email, domain, added_by, added_at, is_active)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, TRUE)
	`, e.ID, e.Email, e.Domain, e.AddedBy, e.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("add whitelist entry: %w", err)
	}
	return &e, nil
}

// Remove deactivates every active entry whose email or domain equals
// identifier. Returns false when nothing matched.
func (s *WhitelistStore) Remove(ctx context.Context, identifier string) (bool, error) {
	identifier = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(identifier), "@"))
	if identifier == "" {
		return false, ErrInvalidEntry
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE whitelist SET is_active = FALSE
		WHERE is_active AND (lower(email) = $1 OR lower(domain) = $1)
	`, identifier)
	if err != nil {
		return false, fmt.Errorf("remove whitelist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove whitelist entry: %w", err)
	}
	return n > 0, nil
}

// NormalizeEntry lower-cases and validates an entry before insert.
func NormalizeEntry(e models.WhitelistEntry) (models.WhitelistEntry, error) {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.Domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e.Domain), "@"))
	e.AddedBy = strings.ToLower(strings.TrimSpace(e.AddedBy))

	switch {
	case (e.Email == "") == (e.Domain == ""):
		return e, ErrInvalidEntry
	case e.Email != "" && !validEmail(e.Email):
		return e, ErrInvalidEntry
	case e.Domain != "" && (strings.Contains(e.Domain, "@") || !strings.Contains(e.Domain, ".")):
		return e, ErrInvalidEntry
	}
	if e.AddedBy == "" {
		e.AddedBy = "system"
	}
	return e, nil
}

func validEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && strings.Count(s, "@") == 1
}
