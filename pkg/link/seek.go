package link

import (
	"sort"

	"github.com/ssargent/durapack/pkg/codec"
)

// SeekWithSkipList locates the frame with targetID. It returns nil when no
// placed frame has the target ID. A placed target is found directly through
// the timeline's ID index; the walk over in-payload skip links below runs
// only for IDs that are not placed, and then ends without a match.
func (t *Timeline) SeekWithSkipList(targetID uint64) *codec.Frame {
	if i, ok := t.byID[targetID]; ok && t.entries[i].placed {
		return t.entries[i].frame
	}

	// Walk from the largest placed ID above the target back toward it.
	ids := t.placedIDs()
	if len(ids) == 0 {
		return nil
	}
	pos := sort.Search(len(ids), func(i int) bool { return ids[i] >= targetID })
	if pos == len(ids) {
		pos--
	}
	cursorID := ids[pos]

	for cursorID > targetID {
		cur := t.entries[t.byID[cursorID]]

		// Prefer the longest skip link that does not overshoot.
		jumped := false
		for l := len(cur.frame.SkipLinks) - 1; l >= 0; l-- {
			link := cur.frame.SkipLinks[l]
			if link.TargetID < targetID {
				continue
			}
			if _, ok := t.byID[link.TargetID]; ok {
				cursorID = link.TargetID
				jumped = true
				break
			}
		}
		if jumped {
			continue
		}

		// Fall back to the next smaller placed ID.
		i := sort.Search(len(ids), func(i int) bool { return ids[i] >= cursorID })
		if i == 0 {
			return nil
		}
		cursorID = ids[i-1]
	}

	if cursorID == targetID {
		return t.entries[t.byID[cursorID]].frame
	}
	return nil
}

func (t *Timeline) placedIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Frames))
	for i := range t.entries {
		if t.entries[i].placed {
			ids = append(ids, t.entries[i].frame.Header.FrameID)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}
