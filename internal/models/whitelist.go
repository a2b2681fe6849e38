package models

import (
	"time"

	"github.com/google/uuid"
)

// WhitelistEntry grants access to a single email address or to every
// address under a domain. Exactly one of Email or Domain is set.
type WhitelistEntry struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
	Active  bool      `json:"active"`
}
