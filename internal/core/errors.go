package core

import "errors"

// Error taxonomy shared by the session layer, the remote client, and the
// server handlers. Sentinel errors are matched with errors.Is; validation
// failures carry a message and are matched with errors.As.
var (
	// ErrNotFound: the server reports the target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized: missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServer: the server was reached but reported an internal failure.
	ErrServer = errors.New("server error")

	// ErrNetwork: transport-level failure, no definitive server answer.
	ErrNetwork = errors.New("network error")

	// ErrAlreadyExists: a uniqueness constraint was violated, e.g. an email
	// address registered twice.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError is a client-side rejection. It never reaches the network.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
