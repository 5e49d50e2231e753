package remote

import (
	"context"

	"bilancio/internal/core"
)

// Service is the abstract contract against the remote collaborators: the
// credential issuer and the transaction/preference store. The session layer
// depends on this interface only; Client is the HTTP implementation and
// tests substitute in-memory fakes.
type Service interface {
	Login(ctx context.Context, email, password string) (core.Session, error)
	Register(ctx context.Context, username, email, password string) (core.Session, error)

	FetchTransactions(ctx context.Context, userID, credential string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, draft core.TransactionDraft, credential string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch, credential string) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, credential string) error

	FetchPreferences(ctx context.Context, userID, credential string) (core.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, prefs core.Preferences, credential string) (core.Preferences, error)
}
