package http

import (
	"net/http"

	"bilancio/internal/auth"
	"bilancio/internal/remote"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := s.store.UserByID(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, remote.PreferencesToWire(user.Preferences))
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req remote.Preferences
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := s.store.UpdatePreferences(r.Context(), userID, req.ToCore())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, remote.PreferencesToWire(stored))
}
