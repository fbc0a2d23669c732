package reconcile

import (
	"slices"

	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// Orphans holds inner records whose parent has not been seen yet, oldest
// first. The zero value is empty and ready to use. Orphans is treated as
// immutable: every operation returns a new value.
type Orphans struct {
	entries []txrecord.Record
}

// Len returns the number of pending inner records across all parents.
func (o Orphans) Len() int {
	return len(o.entries)
}

// For returns copies of the records waiting for parentID, in arrival order.
func (o Orphans) For(parentID string) []txrecord.Record {
	var out []txrecord.Record
	for _, e := range o.entries {
		if e.ParentID == parentID {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Records returns a copy of every pending record, oldest first.
func (o Orphans) Records() []txrecord.Record {
	return txrecord.CloneAll(o.entries)
}

func (o Orphans) index(parentID, id string) int {
	return slices.IndexFunc(o.entries, func(e txrecord.Record) bool {
		return e.ParentID == parentID && e.ID == id
	})
}

// put stores in, replacing a pending record with the same parent and id in
// place, and evicts from the oldest end while the set exceeds capacity.
// changed is false when an identical record was already pending.
func (o Orphans) put(in txrecord.Record, capacity int) (next Orphans, changed bool) {
	entries := txrecord.CloneAll(o.entries)

	if i := o.index(in.ParentID, in.ID); i >= 0 {
		if txrecord.SameContent(entries[i], in) {
			return o, false
		}
		entries[i] = in
		return Orphans{entries: entries}, true
	}

	entries = append(entries, in)
	if over := len(entries) - capacity; over > 0 {
		entries = entries[over:]
	}
	return Orphans{entries: entries}, true
}

// take removes and returns every record waiting for parentID.
func (o Orphans) take(parentID string) (Orphans, []txrecord.Record) {
	taken := o.For(parentID)
	if len(taken) == 0 {
		return o, nil
	}

	rest := make([]txrecord.Record, 0, len(o.entries)-len(taken))
	for _, e := range o.entries {
		if e.ParentID != parentID {
			rest = append(rest, e.Clone())
		}
	}
	return Orphans{entries: rest}, taken
}
