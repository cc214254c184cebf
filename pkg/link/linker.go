package link

import (
	"sort"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/scan"
)

// Gap marks a break in the reconstructed sequence between two recovered
// frames: the chain hash did not connect them or their IDs are not
// contiguous. Confidence is the arithmetic mean of the bracketing frames'
// scan confidences.
type Gap struct {
	BeforeID   uint64
	AfterID    uint64
	Confidence float64
}

// DuplicateWarning records byte-identical frames sharing a frame ID; the
// first occurrence by scan order was kept.
type DuplicateWarning struct {
	FrameID        uint64
	KeptOffset     int
	DroppedOffsets []int
}

// Timeline is the ordered reconstruction of a set of recovered frames.
// It is built in one pass and immutable afterwards.
type Timeline struct {
	// Frames in chain order.
	Frames []*codec.Frame

	// Gaps between consecutive placed frames.
	Gaps []Gap

	// Orphans are valid frames that could not be placed: frames whose ID
	// collides with a differing, earlier-seen frame.
	Orphans []*codec.Frame

	// Duplicates lists dropped byte-identical re-occurrences.
	Duplicates []DuplicateWarning

	// BackLinkErrors from the end-to-end verification pass.
	BackLinkErrors []*codec.BackLinkError

	entries []linkEntry
	byID    map[uint64]int
	byHash  map[[codec.Blake3Size]byte]int
	located bool
}

// linkEntry is the arena slot for one retained frame. Linkage is expressed
// through indices and the side maps, never through pointers between
// entries.
type linkEntry struct {
	frame      *codec.Frame
	offset     int
	size       int
	confidence float64
	hash       [codec.Blake3Size]byte
	placed     bool
	orphan     bool
}

// Link reconstructs a timeline from an unordered collection of frames.
// Frames carry no offsets or confidences here: offsets are unknown (-1)
// and every confidence is 1.0.
func Link(frames []*codec.Frame) *Timeline {
	located := make([]scan.LocatedFrame, 0, len(frames))
	for _, f := range frames {
		located = append(located, scan.LocatedFrame{Offset: -1, Size: f.TotalSize(), Confidence: 1.0, Frame: f})
	}
	return build(located, false)
}

// LinkLocated reconstructs a timeline from scanner output, preserving
// offsets and confidences for gap scoring and analysis.
func LinkLocated(located []scan.LocatedFrame) *Timeline {
	return build(located, true)
}

func build(located []scan.LocatedFrame, hasOffsets bool) *Timeline {
	t := &Timeline{
		byID:    make(map[uint64]int),
		byHash:  make(map[[codec.Blake3Size]byte]int),
		located: hasOffsets,
	}
	if len(located) == 0 {
		return t
	}

	// Group by frame ID in scan order: the first occurrence wins, later
	// byte-identical copies become duplicate warnings, later differing
	// frames become orphans (the analyzer reports them as conflicts).
	dupes := make(map[uint64]*DuplicateWarning)
	for _, lf := range located {
		f := lf.Frame
		if f.Header.Flags.HasSkipList() && f.SkipLinks == nil {
			if links, _, err := codec.ParseSkipLinks(f.Payload); err == nil {
				f.SkipLinks = links
			}
		}
		entry := linkEntry{
			frame:      f,
			offset:     lf.Offset,
			size:       lf.Size,
			confidence: lf.Confidence,
			hash:       codec.ComputeFrameHash(f),
		}
		if prior, ok := t.byID[f.Header.FrameID]; ok {
			if t.entries[prior].hash == entry.hash {
				w := dupes[f.Header.FrameID]
				if w == nil {
					w = &DuplicateWarning{FrameID: f.Header.FrameID, KeptOffset: t.entries[prior].offset}
					dupes[f.Header.FrameID] = w
				}
				w.DroppedOffsets = append(w.DroppedOffsets, lf.Offset)
				continue
			}
			entry.orphan = true
		}
		t.entries = append(t.entries, entry)
		idx := len(t.entries) - 1
		if !entry.orphan {
			t.byID[f.Header.FrameID] = idx
			t.byHash[entry.hash] = idx
		}
	}
	for _, w := range sortedDupeIDs(dupes) {
		t.Duplicates = append(t.Duplicates, *dupes[w])
	}

	// Successor lookup: prev_hash -> candidate arena indices.
	byPrevHash := make(map[[codec.Blake3Size]byte][]int)
	for i := range t.entries {
		if t.entries[i].orphan {
			continue
		}
		ph := t.entries[i].frame.Header.PrevHash
		byPrevHash[ph] = append(byPrevHash[ph], i)
	}

	// Place chains: repeatedly take the unplaced frame with the lowest ID
	// and extend greedily along matching back-links. Chain roots start
	// fresh sequences; anything else reached this way sits past a gap.
	lastPlaced := -1
	for {
		next := t.lowestUnplaced()
		if next < 0 {
			break
		}
		e := &t.entries[next]
		if lastPlaced >= 0 && !e.frame.Header.IsChainRoot() {
			t.addGap(&t.entries[lastPlaced], e)
		}
		lastPlaced = t.placeChain(next, byPrevHash)
	}

	// Orphans in scan order.
	for i := range t.entries {
		if t.entries[i].orphan {
			t.Orphans = append(t.Orphans, t.entries[i].frame)
		}
	}

	t.BackLinkErrors = t.VerifyBackLinks()
	return t
}

// placeChain appends the entry at start and every greedy back-link
// successor, returning the arena index of the last frame placed.
func (t *Timeline) placeChain(start int, byPrevHash map[[codec.Blake3Size]byte][]int) int {
	cur := start
	for {
		e := &t.entries[cur]
		e.placed = true
		t.Frames = append(t.Frames, e.frame)
		if e.frame.Header.Flags.IsLast() {
			return cur
		}

		succ := -1
		for _, i := range byPrevHash[e.hash] {
			if t.entries[i].placed || t.entries[i].orphan {
				continue
			}
			if succ < 0 || t.entries[i].frame.Header.FrameID < t.entries[succ].frame.Header.FrameID {
				succ = i
			}
		}
		if succ < 0 {
			return cur
		}
		if t.entries[succ].frame.Header.FrameID != e.frame.Header.FrameID+1 {
			// Linked but non-contiguous IDs still surface as a gap.
			t.addGap(e, &t.entries[succ])
		}
		cur = succ
	}
}

func (t *Timeline) addGap(before, after *linkEntry) {
	t.Gaps = append(t.Gaps, Gap{
		BeforeID:   before.frame.Header.FrameID,
		AfterID:    after.frame.Header.FrameID,
		Confidence: (before.confidence + after.confidence) / 2,
	})
}

func (t *Timeline) lowestUnplaced() int {
	best := -1
	for i := range t.entries {
		if t.entries[i].placed || t.entries[i].orphan {
			continue
		}
		if best < 0 || t.entries[i].frame.Header.FrameID < t.entries[best].frame.Header.FrameID {
			best = i
		}
	}
	return best
}

// VerifyBackLinks checks every adjacent placed pair end-to-end. Pairs
// bracketing a recorded gap and pairs where the later frame starts a new
// chain are expected breaks; any other mismatch is a BackLinkError.
func (t *Timeline) VerifyBackLinks() []*codec.BackLinkError {
	gapAfter := make(map[uint64]map[uint64]bool)
	for _, g := range t.Gaps {
		if gapAfter[g.BeforeID] == nil {
			gapAfter[g.BeforeID] = make(map[uint64]bool)
		}
		gapAfter[g.BeforeID][g.AfterID] = true
	}

	var errs []*codec.BackLinkError
	for i := 1; i < len(t.Frames); i++ {
		prev, cur := t.Frames[i-1], t.Frames[i]
		if cur.Header.IsChainRoot() {
			continue
		}
		if gapAfter[prev.Header.FrameID][cur.Header.FrameID] {
			continue
		}
		expected := t.hashOf(prev.Header.FrameID)
		if cur.Header.PrevHash != expected {
			errs = append(errs, &codec.BackLinkError{
				FrameID:  cur.Header.FrameID,
				Expected: expected,
				Actual:   cur.Header.PrevHash,
			})
		}
	}
	return errs
}

// Stats summarizes a timeline.
type Stats struct {
	TotalFrames int
	Gaps        int
	Orphans     int
	// Continuity is the share of recovered frames that joined the ordered
	// sequence, as a percentage.
	Continuity float64
}

// Stats returns summary statistics for the timeline.
func (t *Timeline) Stats() Stats {
	total := len(t.Frames) + len(t.Orphans)
	continuity := 0.0
	if total > 0 {
		continuity = float64(len(t.Frames)) / float64(total) * 100
	}
	return Stats{
		TotalFrames: total,
		Gaps:        len(t.Gaps),
		Orphans:     len(t.Orphans),
		Continuity:  continuity,
	}
}

func (t *Timeline) hashOf(frameID uint64) [codec.Blake3Size]byte {
	if i, ok := t.byID[frameID]; ok {
		return t.entries[i].hash
	}
	return [codec.Blake3Size]byte{}
}

// offsetOf returns the located byte offset and size for a placed frame ID.
func (t *Timeline) offsetOf(frameID uint64) (offset, size int, ok bool) {
	if !t.located {
		return 0, 0, false
	}
	i, found := t.byID[frameID]
	if !found {
		return 0, 0, false
	}
	return t.entries[i].offset, t.entries[i].size, true
}

// confidenceOf returns the scan confidence for a placed frame ID, 1.0 when
// unknown.
func (t *Timeline) confidenceOf(frameID uint64) float64 {
	if i, ok := t.byID[frameID]; ok {
		return t.entries[i].confidence
	}
	return 1.0
}

func sortedDupeIDs(dupes map[uint64]*DuplicateWarning) []uint64 {
	ids := make([]uint64, 0, len(dupes))
	for id := range dupes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
