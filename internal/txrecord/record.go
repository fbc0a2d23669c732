// Package txrecord defines the canonical transaction record shared by the
// server pipeline, the checkpoint, the live channel and viewer mirrors.
package txrecord

import (
	"encoding/json"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/validator"
)

// Kind discriminates what a record represents. Values outside the known
// set are carried through unchanged.
type Kind string

const (
	KindPayment         Kind = "payment"
	KindApplicationCall Kind = "applicationCall"
	KindUnknown         Kind = "unknown"
)

// Record is a top-level or inner transaction.
//
// Amount and Fee are in the smallest currency unit. Round 0 means the
// transaction is not confirmed yet. Timestamp is the ingestion wall clock
// in Unix seconds and never takes part in identity or equality.
type Record struct {
	ID                string   `json:"id" validate:"required"`
	Kind              Kind     `json:"kind" validate:"required"`
	Sender            string   `json:"sender"`
	Receiver          string   `json:"receiver,omitempty"`
	ApplicationID     uint64   `json:"applicationId,omitempty"`
	Amount            uint64   `json:"amount"`
	Fee               uint64   `json:"fee"`
	Round             uint64   `json:"round"`
	Timestamp         int64    `json:"timestamp"`
	GroupID           string   `json:"groupId,omitempty"`
	IsInner           bool     `json:"isInner,omitempty"`
	ParentID          string   `json:"parentId,omitempty" validate:"required_if=IsInner true,excluded_if=IsInner false"`
	InnerTransactions []Record `json:"innerTransactions" validate:"dive"`
}

// MarshalJSON always emits innerTransactions as an array.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	if r.InnerTransactions == nil {
		r.InnerTransactions = []Record{}
	}
	return json.Marshal(plain(r))
}

// Validate checks the identity rules of r and of its inner records.
func (r Record) Validate() error {
	return validator.Validate(r)
}

// Confirmed reports whether the record has a confirmation round.
func (r Record) Confirmed() bool {
	return r.Round > 0
}

// InnerIndex returns the position of the inner record with the given id,
// or -1.
func (r Record) InnerIndex(id string) int {
	return slices.IndexFunc(r.InnerTransactions, func(in Record) bool {
		return in.ID == id
	})
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.InnerTransactions != nil {
		inner := make([]Record, len(r.InnerTransactions))
		for i, in := range r.InnerTransactions {
			inner[i] = in.Clone()
		}
		r.InnerTransactions = inner
	}
	return r
}

// CloneAll deep-copies a slice of records. A nil input stays nil.
func CloneAll(records []Record) []Record {
	if records == nil {
		return nil
	}

	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// SameContent reports whether a and b are equal ignoring Timestamp, at
// every nesting level.
func SameContent(a, b Record) bool {
	if len(a.InnerTransactions) != len(b.InnerTransactions) {
		return false
	}
	for i := range a.InnerTransactions {
		if !SameContent(a.InnerTransactions[i], b.InnerTransactions[i]) {
			return false
		}
	}

	a.Timestamp, b.Timestamp = 0, 0
	a.InnerTransactions, b.InnerTransactions = nil, nil
	return reflect.DeepEqual(a, b)
}

// SanitizeID replaces every byte outside [A-Za-z0-9_.-] with '-' so ids
// can be embedded in paths and URLs.
func SanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '.' || r == '-':
			return r
		default:
			return '-'
		}
	}, id)
}

// InnerID derives the id of the inner record at position pos of parentID.
// A sourceID supplied by the event source wins over the positional form.
func InnerID(parentID string, pos int, sourceID string) string {
	if sourceID != "" {
		return SanitizeID(sourceID)
	}
	return SanitizeID(parentID) + "-" + strconv.Itoa(pos)
}
