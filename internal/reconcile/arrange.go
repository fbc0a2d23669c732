package reconcile

import (
	"cmp"
	"slices"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/types"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// Group is a display unit: the records sharing a round and group id.
// Ungrouped records of one round share a single group.
type Group struct {
	Round   uint64            `json:"round"`
	GroupID string            `json:"groupId,omitempty"`
	Records []txrecord.Record `json:"transactions"`
}

type groupKey struct {
	round   uint64
	groupID string
}

type arrival struct {
	seq    int
	record txrecord.Record
}

func kindRank(k txrecord.Kind) int {
	switch k {
	case txrecord.KindApplicationCall:
		return 0
	case txrecord.KindPayment:
		return 1
	default:
		return 2
	}
}

// compareRounds orders rounds descending with unconfirmed (0) last.
func compareRounds(a, b uint64) int {
	switch {
	case a == b:
		return 0
	case a == 0:
		return 1
	case b == 0:
		return -1
	default:
		return cmp.Compare(b, a)
	}
}

// Arrange derives the display order of a most-recent-first log. Records
// are grouped by (round, groupId). Inside a group application calls come
// before payments and earlier arrivals before later ones. Groups are
// sorted by round descending, unconfirmed last, and groups of the same
// round keep their log order. The log itself is not modified.
func Arrange(log []txrecord.Record) []Group {
	groups := types.NewDefaultMap[groupKey, []arrival](func() []arrival { return nil })

	for i, r := range log {
		key := groupKey{round: r.Round, groupID: r.GroupID}
		// log is most-recent-first: the oldest record gets seq 1.
		groups.Set(key, append(groups.Get(key), arrival{seq: len(log) - i, record: r.Clone()}))
	}

	out := make([]Group, 0, groups.Len())
	for _, key := range groups.Keys() {
		members := groups.Get(key)
		slices.SortStableFunc(members, func(a, b arrival) int {
			if c := cmp.Compare(kindRank(a.record.Kind), kindRank(b.record.Kind)); c != 0 {
				return c
			}
			return cmp.Compare(a.seq, b.seq)
		})

		g := Group{Round: key.round, GroupID: key.groupID}
		for _, m := range members {
			g.Records = append(g.Records, m.record)
		}
		out = append(out, g)
	}

	slices.SortStableFunc(out, func(a, b Group) int {
		return compareRounds(a.Round, b.Round)
	})
	return out
}
