package scan

import (
	"bytes"

	"github.com/ssargent/durapack/pkg/codec"
)

// Signal weights. Chosen so the orderings the format guarantees hold:
// exact markers beat repaired ones, BLAKE3 beats CRC32C beats no trailer,
// and chain-consistent neighbors beat unknowns.
const (
	weightMarker   = 0.45
	weightTrailer  = 0.20
	weightPrefix   = 0.10
	weightSize     = 0.10
	weightNeighbor = 0.15
)

// scoreFrame composes the confidence for a freshly decoded frame from the
// independent signals described by the format: marker quality, wire prefix
// presence, trailer class, size sanity, and consistency with the previous
// located frame. The result is clamped to [0, 1].
func scoreFrame(data []byte, c candidate, lf *LocatedFrame, prev *LocatedFrame, prevHash [codec.Blake3Size]byte, havePrev bool) float64 {
	markerQ := 1.0 - float64(c.dist)/float64(codec.MarkerSize)

	var trailerQ float64
	switch lf.Frame.Header.Flags.TrailerType() {
	case codec.TrailerBlake3:
		trailerQ = 1.0
	case codec.TrailerCRC32C:
		trailerQ = 0.85
	default:
		trailerQ = 0.6
	}

	prefixQ := 0.5
	if c.assisted || hasWirePrefix(data, c.offset) {
		prefixQ = 1.0
	}

	sizeQ := 0.75
	if prev != nil {
		lo := prev.Size - prev.Size/10
		hi := prev.Size + prev.Size/10
		if lf.Size >= lo && lf.Size <= hi {
			sizeQ = 1.0
		}
	}

	neighborQ := 0.5
	if lf.Frame.Header.IsChainRoot() {
		neighborQ = 0.75
	}
	if havePrev && prev != nil {
		if lf.Frame.Header.PrevHash == prevHash || lf.Offset == prev.Offset+prev.Size {
			neighborQ = 1.0
		}
	}

	conf := weightMarker*markerQ +
		weightTrailer*trailerQ +
		weightPrefix*prefixQ +
		weightSize*sizeQ +
		weightNeighbor*neighborQ
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

// hasWirePrefix reports whether a sync word or a full preamble run ends
// immediately before offset.
func hasWirePrefix(data []byte, offset int) bool {
	sw := len(codec.RobustSyncWord)
	if offset >= sw && bytes.Equal(data[offset-sw:offset], codec.RobustSyncWord[:]) {
		return true
	}
	if offset >= codec.MinPreambleLen {
		run := 0
		for i := offset - 1; i >= 0 && data[i] == codec.PreamblePattern; i-- {
			run++
		}
		if run >= codec.MinPreambleLen {
			return true
		}
	}
	return false
}
