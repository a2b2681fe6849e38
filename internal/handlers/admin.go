package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"medigenius/internal/middleware"
	"medigenius/internal/models"
	"medigenius/internal/store"
)

// WhitelistManager is the allow-list persistence the admin endpoints need.
// *store.WhitelistStore satisfies it.
type WhitelistManager interface {
	List(ctx context.Context) ([]models.WhitelistEntry, error)
	Add(ctx context.Context, entry models.WhitelistEntry) (*models.WhitelistEntry, error)
	Remove(ctx context.Context, identifier string) (bool, error)
}

// Admin groups allow-list management handlers. Routes are admin only.
type Admin struct {
	whitelist WhitelistManager
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(whitelist WhitelistManager) *Admin {
	return &Admin{whitelist: whitelist}
}

// WhitelistList returns the active entries.
func (a *Admin) WhitelistList(w http.ResponseWriter, r *http.Request) {
	entries, err := a.whitelist.List(r.Context())
	if err != nil {
		slog.Error("list whitelist failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load the access list")
		return
	}
	if entries == nil {
		entries = []models.WhitelistEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type whitelistAddRequest struct {
	Email  string `json:"email,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// WhitelistAdd grants access to one email or a whole domain.
func (a *Admin) WhitelistAdd(w http.ResponseWriter, r *http.Request) {
	var req whitelistAddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	entry, err := a.whitelist.Add(r.Context(), models.WhitelistEntry{
		Email:   req.Email,
		Domain:  req.Domain,
		AddedBy: sess.Email,
	})
	switch {
	case errors.Is(err, store.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "provide exactly one valid email or domain")
		return
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "an active entry already exists")
		return
	case err != nil:
		slog.Error("add whitelist entry failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not update the access list")
		return
	}

	slog.Info("whitelist entry added", "email", entry.Email, "domain", entry.Domain, "by", sess.Email)
	writeJSON(w, http.StatusCreated, entry)
}

// WhitelistRemove deactivates the entries for an email or domain.
func (a *Admin) WhitelistRemove(w http.ResponseWriter, r *http.Request) {
	identifier, err := url.PathUnescape(chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	removed, err := a.whitelist.Remove(r.Context(), identifier)
	switch {
	case errors.Is(err, store.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	case err != nil:
		slog.Error("remove whitelist entry failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not update the access list")
		return
	case !removed:
		writeError(w, http.StatusNotFound, "no active entry for "+identifier)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("whitelist entry removed", "identifier", identifier, "by", sess.Email)
	w.WriteHeader(http.StatusNoContent)
}
