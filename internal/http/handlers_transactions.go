package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/remote"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, cached := s.txCache.Get(userID)
	if cached {
		slog.DebugContext(r.Context(), "Transactions cache hit", "user_id", userID, "count", len(list))
	} else {
		var err error
		list, err = s.store.TransactionsByUser(r.Context(), userID)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		s.txCache.Set(userID, list)
	}

	wire := make([]remote.Transaction, len(list))
	for i, t := range list {
		wire[i] = remote.TransactionToWire(t)
	}
	respond(w, http.StatusOK, wire)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req remote.TransactionDraft
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft := req.ToCore()
	if err := draft.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), userID, draft)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.txCache.Delete(userID)
	s.publishMutation(r, "created", created)
	respond(w, http.StatusCreated, remote.TransactionToWire(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req remote.TransactionPatch
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), userID, r.PathValue("id"), req.ToCore())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.txCache.Delete(userID)
	s.publishMutation(r, "updated", updated)
	respond(w, http.StatusOK, remote.TransactionToWire(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.txCache.Delete(userID)
	s.publishMutation(r, "deleted", core.Transaction{ID: id, UserID: userID})
	respond(w, http.StatusNoContent, nil)
}

// publishMutation notifies the broker about a committed change. Failures are
// logged and swallowed so the export pipeline never blocks the API.
func (s *Server) publishMutation(r *http.Request, op string, tx core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMutation(r.Context(), op, tx); err != nil {
		slog.WarnContext(r.Context(), "Mutation event publish failed",
			"error", err,
			"op", op,
			"transaction_id", tx.ID)
	}
}
