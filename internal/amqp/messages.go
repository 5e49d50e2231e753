package amqp

import (
	"encoding/json"
	"time"
)

// Mutation operations carried by MutationMessage.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// MutationMessage announces a committed transaction mutation. It carries only
// identifiers, the worker fetches the full transaction from the database.
type MutationMessage struct {
	Op            string    `json:"op"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewMutationMessage(op, transactionID, userID string) *MutationMessage {
	return &MutationMessage{
		Op:            op,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON creates a message from JSON bytes.
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
