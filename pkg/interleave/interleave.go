// Package interleave stripes contiguous payload data across multiple lanes
// so a burst error damages a little of every frame instead of destroying
// one large region. The frame format is unchanged; writers apply this at
// the payload level and record the parameters in their own metadata (for
// example a superframe index) so readers can reassemble.
package interleave

import "fmt"

// Params controls the striping.
type Params struct {
	// Group is the number of lanes (typically consecutive frames) to
	// spread across.
	Group int

	// ShardLen is the stripe size in bytes per lane per round.
	ShardLen int
}

func (p Params) validate() error {
	if p.Group < 1 || p.ShardLen < 1 {
		return fmt.Errorf("interleave: group and shard_len must be positive, got %d/%d", p.Group, p.ShardLen)
	}
	return nil
}

// Interleave splits input into Group lanes in round-robin blocks of
// ShardLen bytes. Emitting lane i as the payload chunk of frame i spreads
// any contiguous damage across the group.
func Interleave(input []byte, p Params) ([][]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	lanes := make([][]byte, p.Group)
	idx := 0
	for idx < len(input) {
		for lane := 0; lane < p.Group && idx < len(input); lane++ {
			end := idx + p.ShardLen
			if end > len(input) {
				end = len(input)
			}
			lanes[lane] = append(lanes[lane], input[idx:end]...)
			idx = end
		}
	}
	return lanes, nil
}

// Deinterleave reassembles a buffer striped by Interleave. The lanes must
// be in lane order and use the same parameters.
func Deinterleave(lanes [][]byte, p Params) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(lanes) != p.Group {
		return nil, fmt.Errorf("interleave: expected %d lanes, got %d", p.Group, len(lanes))
	}

	total := 0
	for _, lane := range lanes {
		total += len(lane)
	}
	out := make([]byte, 0, total)
	cursors := make([]int, p.Group)

	for {
		advanced := false
		for lane := 0; lane < p.Group; lane++ {
			cur := cursors[lane]
			if cur >= len(lanes[lane]) {
				continue
			}
			end := cur + p.ShardLen
			if end > len(lanes[lane]) {
				end = len(lanes[lane])
			}
			out = append(out, lanes[lane][cur:end]...)
			cursors[lane] = end
			advanced = true
		}
		if !advanced {
			break
		}
	}
	return out, nil
}
