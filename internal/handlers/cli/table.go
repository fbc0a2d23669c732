package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// printGroups writes one row per record, inner records indented under
// their parent.
func printGroups(w io.Writer, groups []reconcile.Group) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ROUND\tGROUP\tID\tKIND\tSENDER\tRECEIVER\tAMOUNT\tFEE")
	for _, g := range groups {
		for _, r := range g.Records {
			printRecord(tw, g, r, "")
			for _, in := range r.InnerTransactions {
				printRecord(tw, g, in, "  ")
			}
		}
	}

	return tw.Flush()
}

func printRecord(w io.Writer, g reconcile.Group, r txrecord.Record, indent string) {
	round := "pending"
	if g.Round > 0 {
		round = fmt.Sprint(g.Round)
	}

	group := g.GroupID
	if group == "" {
		group = "-"
	}

	receiver := r.Receiver
	if receiver == "" {
		receiver = "-"
	}

	fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\t%s\t%s\t%s\t%s\n",
		round, group, indent, r.ID, r.Kind, r.Sender, receiver,
		txrecord.FormatAmount(r.Amount), txrecord.FormatAmount(r.Fee))
}
