package emit

import (
	"fmt"
	"strings"

	"github.com/ssargent/durapack/pkg/link"
)

// ReportDOT renders a report as a Graphviz digraph: ordered frames as
// nodes, chain links as edges, gaps as dashed red edges labelled with
// their reason, fork (prev_hash) conflicts as dotted orange edges, orphan
// clusters as gray subgraphs, and recipes as note nodes. Frame-ID conflicts
// are not drawn.
func ReportDOT(r *link.Report) string {
	var b strings.Builder
	b.WriteString("digraph timeline {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, f := range r.Timeline.Frames {
		fmt.Fprintf(&b, "  %d [label=\"%d\"];\n", f.Header.FrameID, f.Header.FrameID)
	}

	for i, cluster := range r.OrphanClusters {
		fmt.Fprintf(&b, "  subgraph cluster_orphans_%d {\n", i)
		fmt.Fprintf(&b, "    label=\"orphan cluster #%d\";\n", i)
		b.WriteString("    style=dashed; color=gray;\n")
		for _, id := range cluster.IDs {
			fmt.Fprintf(&b, "    %d [style=filled, fillcolor=lightgray];\n", id)
		}
		b.WriteString("  }\n")
	}

	gapped := make(map[[2]uint64]bool)
	for _, gd := range r.GapDetails {
		gapped[[2]uint64{gd.BeforeID, gd.AfterID}] = true
	}
	frames := r.Timeline.Frames
	for i := 1; i < len(frames); i++ {
		a := frames[i-1].Header.FrameID
		c := frames[i].Header.FrameID
		if gapped[[2]uint64{a, c}] {
			continue
		}
		fmt.Fprintf(&b, "  %d -> %d;\n", a, c)
	}

	for _, gd := range r.GapDetails {
		fmt.Fprintf(&b, "  %d -> %d [style=dashed, color=red, label=\"gap: %s\"];\n",
			gd.BeforeID, gd.AfterID, gd.Reason)
	}

	for _, c := range r.Conflicts {
		if c.Kind != link.ConflictPrevHash {
			continue
		}
		for _, succ := range c.ContenderIDs {
			fmt.Fprintf(&b, "  conflict_%x -> %d [style=dotted, color=orange, label=\"conflict\"];\n",
				c.PrevHash[:4], succ)
		}
	}

	for i, rec := range r.Recipes {
		switch rec.Kind {
		case link.RecipeInsertParityFrame:
			fmt.Fprintf(&b, "  recipe_%d [shape=note, color=blue, label=\"insert parity between %d and %d\\n%s\"];\n",
				i, rec.Between[0], rec.Between[1], rec.Reason)
		case link.RecipeRewindOffset:
			fmt.Fprintf(&b, "  recipe_%d [shape=note, color=blue, label=\"rewind offset near %d by %d bytes\\n%s\"];\n",
				i, rec.NearFrame, rec.ByBytes, rec.Reason)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
