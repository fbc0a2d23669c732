// Package reconcile merges incoming transaction records into a bounded,
// most-recent-first log. Reconcile is a pure function shared by the server
// pipeline and by viewer mirrors, so both sides converge on the same log
// given the same sequence of records.
//
// Merge policy:
//   - an inner record attaches to its parent, or waits in Orphans until the
//     parent arrives;
//   - a known top-level record only ever gains inner records, its own
//     fields are never overwritten;
//   - a new top-level record goes to the front and the oldest record falls
//     off once the log exceeds Limits.MaxLogSize.
package reconcile

import (
	"slices"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/types"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

const (
	DefaultMaxLogSize        = 10
	DefaultMaxPendingOrphans = 32
)

// Limits bounds the log and the orphan set. Non-positive values fall back
// to the defaults.
type Limits struct {
	MaxLogSize        int
	MaxPendingOrphans int
}

func (l Limits) normalized() Limits {
	if l.MaxLogSize <= 0 {
		l.MaxLogSize = DefaultMaxLogSize
	}
	if l.MaxPendingOrphans <= 0 {
		l.MaxPendingOrphans = DefaultMaxPendingOrphans
	}
	return l
}

// ChangeKind classifies the effect of one Reconcile call.
type ChangeKind int

const (
	// ChangeNone means the log and orphans are unchanged.
	ChangeNone ChangeKind = iota
	// ChangeInserted means a new top-level record was added.
	ChangeInserted
	// ChangeUpdated means an existing top-level record gained or replaced
	// inner records.
	ChangeUpdated
	// ChangeOrphaned means an inner record was parked awaiting its parent.
	ChangeOrphaned
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeUpdated:
		return "updated"
	case ChangeOrphaned:
		return "orphaned"
	default:
		return "none"
	}
}

// Change describes what Reconcile did.
type Change struct {
	Kind ChangeKind
	// Record is the affected top-level record with all of its inner
	// records. It is only set for ChangeInserted and ChangeUpdated.
	Record txrecord.Record
	// Evicted lists the ids of top-level records dropped by the size cap.
	Evicted []string
}

// Visible reports whether subscribers need to hear about the change.
func (c Change) Visible() bool {
	return c.Kind == ChangeInserted || c.Kind == ChangeUpdated
}

// Result is the state after one Reconcile call.
type Result struct {
	Log     []txrecord.Record
	Orphans Orphans
	Change  Change
}

// Reconcile merges incoming into log. Neither log nor orphans is modified.
// Records without an id, and inner records without a parent id, are
// ignored.
func Reconcile(log []txrecord.Record, orphans Orphans, incoming txrecord.Record, limits Limits) Result {
	limits = limits.normalized()
	log = txrecord.CloneAll(log)
	incoming = incoming.Clone()

	unchanged := Result{Log: log, Orphans: orphans}

	if incoming.ID == "" {
		return unchanged
	}
	if incoming.IsInner {
		return reconcileInner(log, orphans, incoming, limits)
	}
	return reconcileTopLevel(log, orphans, incoming, limits)
}

func indexOf(log []txrecord.Record, id string) int {
	return slices.IndexFunc(log, func(r txrecord.Record) bool {
		return r.ID == id
	})
}

// adopt stamps in as an inner record of parent.
func adopt(parent txrecord.Record, in txrecord.Record) txrecord.Record {
	in.IsInner = true
	in.ParentID = parent.ID
	if in.Round == 0 {
		in.Round = parent.Round
	}
	return in
}

func reconcileInner(log []txrecord.Record, orphans Orphans, in txrecord.Record, limits Limits) Result {
	unchanged := Result{Log: log, Orphans: orphans}

	if in.ParentID == "" {
		return unchanged
	}

	idx := indexOf(log, in.ParentID)
	if idx < 0 {
		next, changed := orphans.put(in, limits.MaxPendingOrphans)
		if !changed {
			return unchanged
		}
		return Result{Log: log, Orphans: next, Change: Change{Kind: ChangeOrphaned}}
	}

	parent := log[idx]
	in = adopt(parent, in)

	if pos := parent.InnerIndex(in.ID); pos >= 0 {
		if txrecord.SameContent(parent.InnerTransactions[pos], in) {
			return unchanged
		}
		parent.InnerTransactions[pos] = in
	} else {
		parent.InnerTransactions = append(parent.InnerTransactions, in)
	}

	log[idx] = parent
	return Result{
		Log:     log,
		Orphans: orphans,
		Change:  Change{Kind: ChangeUpdated, Record: parent.Clone()},
	}
}

func reconcileTopLevel(log []txrecord.Record, orphans Orphans, in txrecord.Record, limits Limits) Result {
	in.ParentID = ""

	if idx := indexOf(log, in.ID); idx >= 0 {
		return mergeExisting(log, orphans, idx, in)
	}

	orphans, waiting := orphans.take(in.ID)

	rec := in
	rec.InnerTransactions = nil
	for _, o := range waiting {
		rec.InnerTransactions = append(rec.InnerTransactions, adopt(rec, o))
	}
	for _, child := range in.InnerTransactions {
		child = adopt(rec, child)
		if pos := rec.InnerIndex(child.ID); pos >= 0 {
			rec.InnerTransactions[pos] = child
			continue
		}
		rec.InnerTransactions = append(rec.InnerTransactions, child)
	}

	next := make([]txrecord.Record, 0, len(log)+1)
	next = append(next, rec)
	next = append(next, log...)

	var evicted []string
	if len(next) > limits.MaxLogSize {
		for _, r := range next[limits.MaxLogSize:] {
			evicted = append(evicted, r.ID)
		}
		next = next[:limits.MaxLogSize]
	}

	return Result{
		Log:     next,
		Orphans: orphans,
		Change:  Change{Kind: ChangeInserted, Record: rec.Clone(), Evicted: evicted},
	}
}

// mergeExisting extends the inner list of log[idx] with the inner records
// of in that it lacks. Everything else about the stored record is kept.
func mergeExisting(log []txrecord.Record, orphans Orphans, idx int, in txrecord.Record) Result {
	existing := log[idx]

	known := types.NewSet[string]()
	for _, child := range existing.InnerTransactions {
		known.Add(child.ID)
	}

	added := false
	for _, child := range in.InnerTransactions {
		if known.Contains(child.ID) {
			continue
		}
		known.Add(child.ID)
		existing.InnerTransactions = append(existing.InnerTransactions, adopt(existing, child))
		added = true
	}

	if !added {
		return Result{Log: log, Orphans: orphans}
	}

	log[idx] = existing
	return Result{
		Log:     log,
		Orphans: orphans,
		Change:  Change{Kind: ChangeUpdated, Record: existing.Clone()},
	}
}
