package http

import (
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// RecordView is a record with amounts rendered in whole units.
type RecordView struct {
	ID                string       `json:"id"`
	Kind              string       `json:"kind"`
	Sender            string       `json:"sender"`
	Receiver          string       `json:"receiver,omitempty"`
	ApplicationID     uint64       `json:"applicationId,omitempty"`
	Amount            string       `json:"amount"`
	Fee               string       `json:"fee"`
	Round             uint64       `json:"round"`
	Timestamp         int64        `json:"timestamp"`
	GroupID           string       `json:"groupId,omitempty"`
	ParentID          string       `json:"parentId,omitempty"`
	InnerTransactions []RecordView `json:"innerTransactions"`
}

type GroupView struct {
	Round        uint64       `json:"round"`
	GroupID      string       `json:"groupId,omitempty"`
	Transactions []RecordView `json:"transactions"`
}

func RenderRecord(r txrecord.Record) RecordView {
	v := RecordView{
		ID:                r.ID,
		Kind:              string(r.Kind),
		Sender:            r.Sender,
		Receiver:          r.Receiver,
		ApplicationID:     r.ApplicationID,
		Amount:            txrecord.FormatAmount(r.Amount),
		Fee:               txrecord.FormatAmount(r.Fee),
		Round:             r.Round,
		Timestamp:         r.Timestamp,
		GroupID:           r.GroupID,
		ParentID:          r.ParentID,
		InnerTransactions: make([]RecordView, 0, len(r.InnerTransactions)),
	}
	for _, in := range r.InnerTransactions {
		v.InnerTransactions = append(v.InnerTransactions, RenderRecord(in))
	}
	return v
}

func RenderGroups(groups []reconcile.Group) []GroupView {
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		gv := GroupView{Round: g.Round, GroupID: g.GroupID, Transactions: make([]RecordView, 0, len(g.Records))}
		for _, r := range g.Records {
			gv.Transactions = append(gv.Transactions, RenderRecord(r))
		}
		out = append(out, gv)
	}
	return out
}
