// Package livefeed defines the messages of the live channel between the
// server and viewer mirrors.
package livefeed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// MessageType discriminates live channel messages.
type MessageType string

const (
	// TypeSnapshot carries the full log. It is sent once per connection.
	TypeSnapshot MessageType = "snapshot"
	// TypeUpdate carries one changed top-level record.
	TypeUpdate MessageType = "update"
)

var (
	ErrInvalidMessage = errors.New("invalid live message")
	// ErrUnknownMessageType is returned by Decode for types this version
	// does not know. Receivers ignore such messages.
	ErrUnknownMessageType = errors.New("unknown live message type")
)

// Message is either a snapshot or an update.
type Message struct {
	Type         MessageType       `json:"type"`
	Transactions []txrecord.Record `json:"transactions,omitempty"`
	Transaction  *txrecord.Record  `json:"transaction,omitempty"`
}

// Snapshot builds a snapshot message for log, most-recent-first.
func Snapshot(log []txrecord.Record) Message {
	records := txrecord.CloneAll(log)
	if records == nil {
		records = []txrecord.Record{}
	}
	return Message{Type: TypeSnapshot, Transactions: records}
}

// Update builds an update message for one top-level record.
func Update(r txrecord.Record) Message {
	r = r.Clone()
	return Message{Type: TypeUpdate, Transaction: &r}
}

// MarshalJSON emits exactly the fields of the message's type. An empty
// snapshot still carries "transactions": [].
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case TypeSnapshot:
		records := m.Transactions
		if records == nil {
			records = []txrecord.Record{}
		}
		return json.Marshal(struct {
			Type         MessageType       `json:"type"`
			Transactions []txrecord.Record `json:"transactions"`
		}{m.Type, records})
	case TypeUpdate:
		if m.Transaction == nil {
			return nil, fmt.Errorf("%w: update without transaction", ErrInvalidMessage)
		}
		return json.Marshal(struct {
			Type        MessageType     `json:"type"`
			Transaction txrecord.Record `json:"transaction"`
		}{m.Type, *m.Transaction})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}
}

// Encode serializes m for the wire.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a wire message. Unknown types yield ErrUnknownMessageType
// together with the parsed type, so callers can log and skip them.
func Decode(payload []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	switch m.Type {
	case TypeSnapshot:
		if m.Transactions == nil {
			m.Transactions = []txrecord.Record{}
		}
		return m, nil
	case TypeUpdate:
		if m.Transaction == nil || m.Transaction.ID == "" {
			return Message{}, fmt.Errorf("%w: update without transaction", ErrInvalidMessage)
		}
		return m, nil
	default:
		return Message{Type: m.Type}, fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}
}
