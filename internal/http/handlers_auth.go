package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/remote"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req remote.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.authSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", sess.User.ID, "username", sess.User.Username)
	respond(w, http.StatusCreated, remote.SessionResponse{
		User:  remote.UserToWire(sess.User),
		Token: sess.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req remote.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", sess.User.ID)
	respond(w, http.StatusOK, remote.SessionResponse{
		User:  remote.UserToWire(sess.User),
		Token: sess.Token,
	})
}
