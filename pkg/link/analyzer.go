package link

import (
	"fmt"
	"sort"

	"github.com/ssargent/durapack/pkg/codec"
)

// GapReason classifies why a gap exists.
type GapReason string

// Gap reason tags.
const (
	// GapMissingByID: the bracketing frame IDs are not contiguous.
	GapMissingByID GapReason = "missing_by_id"
	// GapBrokenBackLink: IDs are contiguous but the chain hash does not
	// connect the frames.
	GapBrokenBackLink GapReason = "broken_backlink"
	// GapOffsetDiscontinuity: IDs are contiguous but the frames' byte
	// positions do not abut, so material was lost or inserted between
	// them.
	GapOffsetDiscontinuity GapReason = "offset_discontinuity"
	// GapVersionMismatch: the bracketing frames carry different protocol
	// versions.
	GapVersionMismatch GapReason = "version_mismatch"
)

// GapDetail is a gap plus its classified reason.
type GapDetail struct {
	Gap
	Reason GapReason
}

// ConflictKind distinguishes the two conflict shapes.
type ConflictKind string

// Conflict kinds.
const (
	// ConflictFrameID: two frames share a frame ID with differing
	// contents.
	ConflictFrameID ConflictKind = "frame_id"
	// ConflictPrevHash: two distinct frames claim the same predecessor (a
	// fork).
	ConflictPrevHash ConflictKind = "prev_hash"
)

// Conflict reports a frame-ID collision or a back-link fork. Offsets are
// the byte positions of the contending frames (−1 when unknown).
type Conflict struct {
	Kind         ConflictKind
	FrameID      uint64
	PrevHash     [codec.Blake3Size]byte
	ContenderIDs []uint64
	Offsets      []int
}

// OrphanCluster groups orphan frames connected by mutual back-link
// relations.
type OrphanCluster struct {
	IDs []uint64
}

// RecipeKind tags an operator hint.
type RecipeKind string

// Recipe kinds.
const (
	RecipeInsertParityFrame RecipeKind = "insert_parity_frame"
	RecipeRewindOffset      RecipeKind = "rewind_offset"
)

// Recipe is an advisory repair hint. Between is set for parity hints;
// NearFrame and ByBytes for offset hints. Recipes carry no semantics for
// the core.
type Recipe struct {
	Kind      RecipeKind
	Between   [2]uint64
	NearFrame uint64
	ByBytes   int64
	Reason    string
}

// Report is the derived analysis of a timeline.
type Report struct {
	Timeline       *Timeline
	GapDetails     []GapDetail
	Conflicts      []Conflict
	OrphanClusters []OrphanCluster
	Recipes        []Recipe
}

// Analyze classifies a timeline's gaps, finds conflicts and orphan
// clusters, and emits repair hints.
func Analyze(t *Timeline) *Report {
	r := &Report{Timeline: t}
	r.classifyGaps()
	r.findConflicts()
	r.clusterOrphans()
	r.buildRecipes()
	return r
}

func (r *Report) classifyGaps() {
	t := r.Timeline
	for _, g := range t.Gaps {
		detail := GapDetail{Gap: g, Reason: GapMissingByID}
		before, haveBefore := t.byID[g.BeforeID]
		after, haveAfter := t.byID[g.AfterID]

		switch {
		case haveBefore && haveAfter &&
			t.entries[before].frame.Header.Version != t.entries[after].frame.Header.Version:
			detail.Reason = GapVersionMismatch
		case g.AfterID != g.BeforeID+1:
			detail.Reason = GapMissingByID
		default:
			detail.Reason = GapBrokenBackLink
			if bo, bs, ok := t.offsetOf(g.BeforeID); ok {
				if ao, _, ok := t.offsetOf(g.AfterID); ok && ao != bo+bs {
					detail.Reason = GapOffsetDiscontinuity
				}
			}
		}
		r.GapDetails = append(r.GapDetails, detail)
	}
}

func (r *Report) findConflicts() {
	t := r.Timeline

	// Frame-ID collisions: each orphan lost to a differing kept frame.
	for i := range t.entries {
		e := &t.entries[i]
		if !e.orphan {
			continue
		}
		id := e.frame.Header.FrameID
		kept, ok := t.byID[id]
		if !ok {
			continue
		}
		r.Conflicts = append(r.Conflicts, Conflict{
			Kind:         ConflictFrameID,
			FrameID:      id,
			ContenderIDs: []uint64{id, id},
			Offsets:      []int{t.entries[kept].offset, e.offset},
		})
	}

	// Forks: a non-zero prev_hash claimed by more than one frame.
	byPrev := make(map[[codec.Blake3Size]byte][]int)
	var zero [codec.Blake3Size]byte
	for i := range t.entries {
		ph := t.entries[i].frame.Header.PrevHash
		if ph == zero {
			continue
		}
		byPrev[ph] = append(byPrev[ph], i)
	}
	var forks []Conflict
	for ph, contenders := range byPrev {
		if len(contenders) < 2 {
			continue
		}
		c := Conflict{Kind: ConflictPrevHash, PrevHash: ph}
		for _, i := range contenders {
			c.ContenderIDs = append(c.ContenderIDs, t.entries[i].frame.Header.FrameID)
			c.Offsets = append(c.Offsets, t.entries[i].offset)
		}
		sort.Slice(c.ContenderIDs, func(a, b int) bool { return c.ContenderIDs[a] < c.ContenderIDs[b] })
		forks = append(forks, c)
	}
	sort.Slice(forks, func(a, b int) bool { return forks[a].ContenderIDs[0] < forks[b].ContenderIDs[0] })
	r.Conflicts = append(r.Conflicts, forks...)
}

// clusterOrphans computes connected components over the orphans' back-link
// relations: an edge exists when one orphan's computed hash is another's
// prev_hash, or when two orphans claim the same unmatched predecessor.
func (r *Report) clusterOrphans() {
	t := r.Timeline
	var orphanIdx []int
	for i := range t.entries {
		if t.entries[i].orphan {
			orphanIdx = append(orphanIdx, i)
		}
	}
	if len(orphanIdx) == 0 {
		return
	}

	adj := make(map[int][]int)
	var zero [codec.Blake3Size]byte
	for a := 0; a < len(orphanIdx); a++ {
		for b := a + 1; b < len(orphanIdx); b++ {
			ea, eb := &t.entries[orphanIdx[a]], &t.entries[orphanIdx[b]]
			linked := ea.hash == eb.frame.Header.PrevHash ||
				eb.hash == ea.frame.Header.PrevHash ||
				(ea.frame.Header.PrevHash != zero && ea.frame.Header.PrevHash == eb.frame.Header.PrevHash)
			if linked {
				adj[orphanIdx[a]] = append(adj[orphanIdx[a]], orphanIdx[b])
				adj[orphanIdx[b]] = append(adj[orphanIdx[b]], orphanIdx[a])
			}
		}
	}

	visited := make(map[int]bool)
	for _, start := range orphanIdx {
		if visited[start] {
			continue
		}
		var ids []uint64
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ids = append(ids, t.entries[u].frame.Header.FrameID)
			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		r.OrphanClusters = append(r.OrphanClusters, OrphanCluster{IDs: ids})
	}
}

func (r *Report) buildRecipes() {
	t := r.Timeline
	for _, gd := range r.GapDetails {
		r.Recipes = append(r.Recipes, Recipe{
			Kind:    RecipeInsertParityFrame,
			Between: [2]uint64{gd.BeforeID, gd.AfterID},
			Reason:  fmt.Sprintf("gap detected: %s", gd.Reason),
		})
		if bo, bs, ok := t.offsetOf(gd.BeforeID); ok {
			if ao, _, ok := t.offsetOf(gd.AfterID); ok {
				delta := int64(ao) - int64(bo+bs)
				if delta != 0 {
					r.Recipes = append(r.Recipes, Recipe{
						Kind:      RecipeRewindOffset,
						NearFrame: gd.AfterID,
						ByBytes:   delta,
						Reason:    "non-contiguous offsets across gap",
					})
				}
			}
		}
	}
}
