// Package access decides whether a signed-in identity may use the service.
// Admins configured in the environment always pass; everyone else needs an
// active allow-list entry for their address or domain.
package access

import (
	"context"
	"log/slog"
	"strings"
)

// Lister looks up allow-list entries.
type Lister interface {
	IsListed(ctx context.Context, email string) (bool, error)
}

// Gate answers access questions. Lookup failures deny access.
type Gate struct {
	list   Lister
	admins map[string]struct{}
}

// NewGate creates a Gate. admins are compared case-insensitively.
func NewGate(list Lister, admins []string) *Gate {
	g := &Gate{list: list, admins: make(map[string]struct{}, len(admins))}
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			g.admins[a] = struct{}{}
		}
	}
	return g
}

// IsAdmin reports whether email belongs to a configured admin.
func (g *Gate) IsAdmin(email string) bool {
	_, ok := g.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// IsWhitelisted reports whether email may use the service.
func (g *Gate) IsWhitelisted(ctx context.Context, email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	if g.IsAdmin(email) {
		return true
	}
	if g.list == nil {
		return false
	}
	ok, err := g.list.IsListed(ctx, email)
	if err != nil {
		slog.Error("whitelist lookup failed", "error", err)
		return false
	}
	return ok
}
