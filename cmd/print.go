package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/hierarchy"
)

func printTree(w io.Writer, root *hierarchy.Node) {
	root.Walk(func(depth int, n *hierarchy.Node) bool {
		indent := strings.Repeat("  ", depth)
		if n.Edge == nil {
			fmt.Fprintf(w, "%s%s %s\n", indent, n.Product.Denotation(), n.Product.Name())
			return true
		}
		fmt.Fprintf(w, "%s%s %s  x%g %s [%s]\n", indent,
			n.Product.Denotation(), n.Product.Name(), n.Edge.Quantity, n.Edge.Unit, n.Edge.Section)
		return true
	})
}

func printBranches(w io.Writer, branches []*hierarchy.Branch) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tID\tPARENT\tDENOTATION\tNAME\tQTY\tUNIT\tDOCS")
	for _, b := range branches {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%g\t%s\t%d\n",
			b.Level, b.ID, b.ParentID, b.Product.Denotation(), b.Product.Name(), b.Quantity, b.Unit, len(b.Documents))
	}
	tw.Flush()
}

func printRouteCard(ctx context.Context, w io.Writer, card *facade.RouteCard) {
	full, err := card.Document.FullDenotation(ctx)
	if err != nil {
		full = card.Document.Denotation()
	}
	fmt.Fprintf(w, "%s  %s\n", full, card.Product.Title())
	for _, op := range card.Operations {
		fmt.Fprintf(w, "%03d %s", op.Operation.OrderNum(), op.Operation.Name())
		if op.Profession != "" {
			fmt.Fprintf(w, " (%s)", op.Profession)
		}
		fmt.Fprintln(w)
		for _, s := range op.Sentences {
			fmt.Fprintf(w, "    %s\n", s)
		}
		for _, s := range op.Settings {
			if s.Value != "" {
				fmt.Fprintf(w, "    %s %s\n", s.Text, s.Value)
				continue
			}
			fmt.Fprintf(w, "    %s\n", s.Text)
		}
		for _, r := range op.Resources {
			fmt.Fprintf(w, "    %-9s %s %g %s\n", r.Kind, r.Name, r.Quantity, r.Unit)
		}
	}
}

func printStats(w io.Writer, stats []repos.CacheStat, live map[string]int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCACHED")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\n", s.Kind, s.Rows)
	}
	tw.Flush()

	kinds := make([]string, 0, len(live))
	for k := range live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACADE\tLIVE")
	for _, k := range kinds {
		fmt.Fprintf(tw, "%s\t%d\n", k, live[k])
	}
	tw.Flush()
}
