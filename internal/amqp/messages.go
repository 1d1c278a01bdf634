package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartsave/internal/core"
)

// Event types double as routing keys on the exchange.
const (
	EventTransactionsImported = "transactions.imported"
	EventBudgetAlert          = "budget.alert"
)

// MessageVersion is bumped when the payload changes incompatibly.
const MessageVersion = 1

var ErrUnknownEvent = errors.New("unknown event type")

// Message is the single envelope carried on the queue. The worker loads
// transactions by ID rather than trusting a copy in the payload.
type Message struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	Version        int                `json:"version"`
	Timestamp      time.Time          `json:"timestamp"`
	UserID         string             `json:"user_id"`
	FileID         string             `json:"file_id,omitempty"`
	TransactionIDs []string           `json:"transaction_ids,omitempty"`
	Alerts         []core.BudgetAlert `json:"alerts,omitempty"`
}

// NewTransactionsImportedMessage announces transactions written for userID.
// fileID is empty for manual entries.
func NewTransactionsImportedMessage(userID, fileID string, transactionIDs []string) *Message {
	return &Message{
		ID:             uuid.NewString(),
		Type:           EventTransactionsImported,
		Version:        MessageVersion,
		Timestamp:      time.Now(),
		UserID:         userID,
		FileID:         fileID,
		TransactionIDs: transactionIDs,
	}
}

// NewBudgetAlertMessage carries alerts that should be delivered to userID.
func NewBudgetAlertMessage(userID string, alerts []core.BudgetAlert) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      EventBudgetAlert,
		Version:   MessageVersion,
		Timestamp: time.Now(),
		UserID:    userID,
		Alerts:    alerts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message body.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventTransactionsImported, EventBudgetAlert:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
	if msg.UserID == "" {
		return nil, errors.New("message without user id")
	}
	return &msg, nil
}
