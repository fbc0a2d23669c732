// Package ingest turns raw events from an event source into transaction
// records for the tracked account.
package ingest

import (
	"errors"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

var (
	// ErrMalformedEvent is returned for events missing identity fields.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrNotInvolved is returned when the tracked account appears in no leg
	// of the event.
	ErrNotInvolved = errors.New("account not involved in event")
)

// Source-side transaction types.
const (
	TypePayment         = "pay"
	TypeApplicationCall = "appl"
)

// Adapter maps events for a single account. It is stateless apart from its
// configuration and safe for concurrent use.
type Adapter struct {
	account string
	now     func() time.Time
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithClock replaces the wall clock used to stamp records.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter returns an Adapter for account.
func NewAdapter(account string, opts ...AdapterOption) *Adapter {
	a := &Adapter{account: account, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Involved reports whether the account is sender or receiver of e or of
// any of its nested events.
func (a *Adapter) Involved(e Event) bool {
	if a.account == "" {
		return false
	}
	if e.Sender == a.account || e.Receiver == a.account {
		return true
	}
	for _, child := range e.InnerTransactions {
		if a.Involved(child) {
			return true
		}
	}
	return false
}

// Map converts e into a record. It fails with ErrMalformedEvent or
// ErrNotInvolved; both mean the event should be dropped.
//
// A standalone inner event (ParentID set) is not checked for relevance:
// its parent decides, and reconciliation either attaches it to a tracked
// parent or parks it as an orphan.
func (a *Adapter) Map(e Event) (txrecord.Record, error) {
	if err := e.Validate(); err != nil {
		return txrecord.Record{}, err
	}
	if e.ParentID == "" && !a.Involved(e) {
		return txrecord.Record{}, ErrNotInvolved
	}

	ts := a.now().Unix()
	rec := mapFields(e, e.ID, ts)

	if e.ParentID != "" {
		rec.IsInner = true
		rec.ParentID = e.ParentID
	}

	rec.InnerTransactions = mapInner(rec, e.InnerTransactions, ts)
	return rec, nil
}

func mapInner(parent txrecord.Record, children []Event, ts int64) []txrecord.Record {
	if len(children) == 0 {
		return nil
	}

	out := make([]txrecord.Record, 0, len(children))
	for i, child := range children {
		in := mapFields(child, txrecord.InnerID(parent.ID, i, child.ID), ts)
		in.IsInner = true
		in.ParentID = parent.ID
		in.Round = parent.Round
		in.InnerTransactions = mapInner(in, child.InnerTransactions, ts)
		out = append(out, in)
	}
	return out
}

func mapFields(e Event, id string, ts int64) txrecord.Record {
	return txrecord.Record{
		ID:            id,
		Kind:          kindOf(e.Type),
		Sender:        e.Sender,
		Receiver:      e.Receiver,
		ApplicationID: e.ApplicationID,
		Amount:        e.Amount,
		Fee:           e.Fee,
		Round:         e.ConfirmedRound,
		Timestamp:     ts,
		GroupID:       e.GroupID,
	}
}

func kindOf(t string) txrecord.Kind {
	switch t {
	case TypePayment, string(txrecord.KindPayment):
		return txrecord.KindPayment
	case TypeApplicationCall, string(txrecord.KindApplicationCall):
		return txrecord.KindApplicationCall
	case "":
		return txrecord.KindUnknown
	default:
		return txrecord.Kind(t)
	}
}
