package scan

import (
	"bytes"
	"errors"
	"math/bits"

	"github.com/ssargent/durapack/pkg/codec"
)

// LocatedFrame is a frame recovered from a buffer, with the byte offset at
// which its marker was found and a confidence score in [0, 1].
type LocatedFrame struct {
	Offset     int
	Size       int
	Confidence float64
	Frame      *codec.Frame
}

// Statistics summarizes a scan pass.
type Statistics struct {
	BytesScanned   int
	MarkersFound   int
	FramesFound    int
	DecodeFailures int
	Truncations    int
}

// Options controls the relaxed search strategies. The zero value is the
// strict configuration: exact and sync-assisted search only, and every
// returned frame re-decodes strictly at its offset.
type Options struct {
	// MarkerHamming enables the bounded-Hamming fallback: marker windows
	// within this bit distance of the real marker are tried, decoding
	// against a marker-repaired copy. 0 disables the fallback; values are
	// clamped to codec.MaxMarkerHamming.
	MarkerHamming int

	// AllowCombinedIntegrity passes through to the decoder for
	// recovery-mode consumers.
	AllowCombinedIntegrity bool
}

// Scan locates every decodable frame in data. Returned frames own their
// payload bytes; data is never mutated or retained. Frames are ordered by
// the offset at which their marker was found.
func Scan(data []byte) ([]LocatedFrame, Statistics) {
	return scan(data, Options{}, true)
}

// ScanWithOptions is Scan with relaxed-search knobs.
func ScanWithOptions(data []byte, opts Options) ([]LocatedFrame, Statistics) {
	return scan(data, opts, true)
}

// ScanZeroCopy is Scan returning frames whose payloads alias data. The
// caller must keep data alive and unmodified for the lifetime of the
// results. Frames recovered through marker repair are copies regardless.
func ScanZeroCopy(data []byte) ([]LocatedFrame, Statistics) {
	return scan(data, Options{}, false)
}

// ScanZeroCopyWithOptions is ScanZeroCopy with relaxed-search knobs.
func ScanZeroCopyWithOptions(data []byte, opts Options) ([]LocatedFrame, Statistics) {
	return scan(data, opts, false)
}

var (
	preambleRun = bytes.Repeat([]byte{codec.PreamblePattern}, codec.MinPreambleLen)
)

// candidate is a position worth attempting a decode at.
type candidate struct {
	offset int
	// dist is the Hamming bit distance between the window at offset and
	// the canonical marker; 0 for exact and sync-assisted hits on an
	// intact marker.
	dist int
	// assisted records that a sync word or preamble run introduced the
	// candidate.
	assisted bool
}

func scan(data []byte, opts Options, copyBytes bool) ([]LocatedFrame, Statistics) {
	stats := Statistics{BytesScanned: len(data)}
	hamming := opts.MarkerHamming
	if hamming > codec.MaxMarkerHamming {
		hamming = codec.MaxMarkerHamming
	}
	decodeOpts := codec.DecodeOptions{AllowCombinedIntegrity: opts.AllowCombinedIntegrity}

	var located []LocatedFrame
	var prevHash [codec.Blake3Size]byte
	havePrev := false

	pos := 0
	for pos+codec.MarkerSize <= len(data) {
		cand, ok := nextCandidate(data, pos, hamming)
		if !ok {
			break
		}
		stats.MarkersFound++

		frame, size, err := decodeCandidate(data, cand, decodeOpts, copyBytes)
		if err != nil {
			var eof *codec.UnexpectedEOFError
			if errors.As(err, &eof) {
				stats.Truncations++
			} else {
				stats.DecodeFailures++
			}
			pos = cand.offset + 1
			continue
		}

		lf := LocatedFrame{Offset: cand.offset, Size: size, Frame: frame}
		var prev *LocatedFrame
		if len(located) > 0 {
			prev = &located[len(located)-1]
		}
		lf.Confidence = scoreFrame(data, cand, &lf, prev, prevHash, havePrev)
		located = append(located, lf)
		stats.FramesFound++

		prevHash = codec.ComputeFrameHash(frame)
		havePrev = true
		pos = cand.offset + size
	}

	return located, stats
}

// nextCandidate finds the earliest position at or after pos worth a decode
// attempt, trying the strategies in order of strength: exact marker match,
// sync/preamble-assisted resync, then the bounded-Hamming slide when
// enabled. The earliest offset wins so results stay offset-ordered.
func nextCandidate(data []byte, pos, hamming int) (candidate, bool) {
	best := candidate{offset: -1}
	take := func(c candidate) {
		if c.offset >= 0 && (best.offset < 0 || c.offset < best.offset) {
			best = c
		}
	}

	// Strategy 1: exact marker via the runtime's vectorized substring
	// search.
	if i := bytes.Index(data[pos:], codec.FrameMarker[:]); i >= 0 {
		take(candidate{offset: pos + i})
	}

	// Strategy 2: sync word or preamble run introducing a marker. Marker
	// bit damage behind a prefix is tolerated only up to the enabled
	// Hamming bound, so the strict configuration stays sound.
	if c := assistedCandidate(data, pos, best.offset); c.dist <= hamming {
		take(c)
	}

	// Strategy 3: bounded-Hamming slide, only over the span no earlier
	// strategy claimed.
	if hamming > 0 {
		limit := len(data) - codec.MarkerSize
		if best.offset >= 0 && best.offset < limit {
			limit = best.offset
		}
		for i := pos; i <= limit; i++ {
			if d := markerDistance(data[i:]); d <= hamming {
				take(candidate{offset: i, dist: d})
				break
			}
		}
	}

	if best.offset < 0 {
		return candidate{}, false
	}
	return best, true
}

// assistedCandidate looks for the earliest sync-word or preamble-introduced
// marker position in [pos, cap). cap < 0 means no bound.
func assistedCandidate(data []byte, pos, capOffset int) candidate {
	none := candidate{offset: -1}
	best := none
	take := func(off int) {
		if off+codec.MarkerSize > len(data) {
			return
		}
		if capOffset >= 0 && off >= capOffset {
			return
		}
		if d := markerDistance(data[off:]); d <= codec.MaxMarkerHamming {
			if best.offset < 0 || off < best.offset {
				best = candidate{offset: off, dist: d, assisted: true}
			}
		}
	}

	search := pos
	for {
		i := bytes.Index(data[search:], codec.RobustSyncWord[:])
		if i < 0 {
			break
		}
		at := search + i
		take(at + len(codec.RobustSyncWord))
		if best.offset >= 0 {
			break
		}
		search = at + 1
	}

	search = pos
	for {
		i := bytes.Index(data[search:], preambleRun)
		if i < 0 {
			break
		}
		at := search + i
		// Extend past the full run.
		end := at + codec.MinPreambleLen
		for end < len(data) && data[end] == codec.PreamblePattern {
			end++
		}
		// Marker directly after the run, or after a trailing sync word.
		take(end)
		if end+len(codec.RobustSyncWord) <= len(data) &&
			bytes.Equal(data[end:end+len(codec.RobustSyncWord)], codec.RobustSyncWord[:]) {
			take(end + len(codec.RobustSyncWord))
		}
		if best.offset >= 0 && best.offset <= end {
			break
		}
		search = end
	}

	return best
}

// markerDistance returns the Hamming bit distance between the 4-byte window
// at data[0:] and the frame marker. Callers guarantee len(data) >= 4.
func markerDistance(data []byte) int {
	d := 0
	for i := 0; i < codec.MarkerSize; i++ {
		d += bits.OnesCount8(data[i] ^ codec.FrameMarker[i])
	}
	return d
}

// decodeCandidate strict-decodes at the candidate. Damaged markers
// (dist > 0) decode against a repaired copy; the trailer, computed over the
// canonical marker, then authenticates the repair.
func decodeCandidate(data []byte, c candidate, opts codec.DecodeOptions, copyBytes bool) (*codec.Frame, int, error) {
	if c.dist == 0 {
		var frame *codec.Frame
		var err error
		if copyBytes {
			frame, err = codec.DecodeWithOptions(data[c.offset:], opts)
		} else {
			frame, err = codec.DecodeZeroCopy(data[c.offset:])
			if err != nil && opts.AllowCombinedIntegrity {
				var bad *codec.InvalidFlagsError
				if errors.As(err, &bad) {
					// Zero-copy has no relaxed variant; fall back to
					// an owning decode for combined-integrity frames.
					frame, err = codec.DecodeWithOptions(data[c.offset:], opts)
				}
			}
		}
		if err != nil {
			return nil, 0, err
		}
		return frame, frame.TotalSize(), nil
	}

	// Repair the marker in a header copy to learn the frame size.
	if c.offset+codec.FrameOverhead > len(data) {
		return nil, 0, &codec.UnexpectedEOFError{Needed: codec.FrameOverhead, Got: len(data) - c.offset}
	}
	hdr := make([]byte, codec.FrameOverhead)
	copy(hdr, data[c.offset:])
	copy(hdr, codec.FrameMarker[:])
	size, err := codec.FrameSize(hdr)
	if err != nil {
		return nil, 0, err
	}
	if c.offset+size > len(data) {
		return nil, 0, &codec.UnexpectedEOFError{Needed: size, Got: len(data) - c.offset}
	}
	repaired := make([]byte, size)
	copy(repaired, data[c.offset:c.offset+size])
	copy(repaired, codec.FrameMarker[:])
	frame, err := codec.DecodeWithOptions(repaired, opts)
	if err != nil {
		return nil, 0, err
	}
	return frame, size, nil
}
