package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/validator"
)

// Event is one transaction observed by an event source. Nested events
// describe inner transactions; their ID is optional.
//
// ParentID is only set when a source reports an inner transaction on its
// own, separately from its parent. Source ids are restricted to
// [A-Za-z0-9_.-]; ids of nested events are sanitized when derived.
type Event struct {
	ID                string  `json:"id" validate:"required,recordid"`
	Type              string  `json:"type"`
	Sender            string  `json:"sender"`
	Receiver          string  `json:"receiver,omitempty"`
	Amount            uint64  `json:"amount,omitempty"`
	Fee               uint64  `json:"fee,omitempty"`
	ApplicationID     uint64  `json:"applicationId,omitempty"`
	ConfirmedRound    uint64  `json:"confirmedRound,omitempty"`
	GroupID           string  `json:"groupId,omitempty"`
	ParentID          string  `json:"parentId,omitempty" validate:"omitempty,recordid"`
	InnerTransactions []Event `json:"innerTransactions,omitempty"`
}

// Validate checks the identity fields of a top-level or standalone event.
func (e Event) Validate() error {
	if err := validator.Validate(e); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	return nil
}

// Encode serializes e for queue and stream transports.
func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// Decode parses and validates a payload produced by Encode.
func Decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
